package nav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Action はメニュー項目を選んだときに実行する操作。
type Action string

const (
	// ActionNavigate はPathへ移動する。
	ActionNavigate Action = ""
	// ActionLogout はログアウトする。
	ActionLogout Action = "logout"
)

// loginPath はログアウト後に移動するパス。
const loginPath = "/login"

// Item はナビゲーションの項目。Childrenを持つ項目はメニューとして開く。
type Item struct {
	// Label は表示名。
	Label string `yaml:"label"`
	// Path は移動先のパス。
	Path string `yaml:"path,omitempty"`
	// Badge は保留中オファー件数のバッジを表示するかどうか。
	Badge bool `yaml:"badge,omitempty"`
	// Action は選択時の操作。
	Action Action `yaml:"action,omitempty"`
	// Children はメニューの項目。
	Children []Item `yaml:"children,omitempty"`
}

// Active はpathがこの項目または子項目のパスと一致するかどうかを返す。
func (i Item) Active(path string) bool {
	if i.Path != "" && i.Path == path {
		return true
	}
	for _, c := range i.Children {
		if c.Active(path) {
			return true
		}
	}
	return false
}

// Layout はナビゲーション全体の項目の並び。
type Layout struct {
	Items []Item `yaml:"items"`
}

// DefaultLayout は顧客向けの既定の項目を返す。
func DefaultLayout() Layout {
	return Layout{Items: []Item{
		{Label: "Home", Path: "/"},
		{Label: "QuickHire", Path: "/quickhire"},
		{Label: "Jobs", Path: "/customer/jobs"},
		{Label: "Offers", Path: "/customer/offers", Badge: true},
		{Label: "Account", Children: []Item{
			{Label: "Profile", Path: "/profile"},
			{Label: "Dashboard", Path: "/customer/dashboard"},
			{Label: "Logout", Action: ActionLogout},
		}},
	}}
}

// ParseLayout はYAMLからLayoutを読み込む。
func ParseLayout(r io.Reader) (Layout, error) {
	var l Layout
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		return Layout{}, fmt.Errorf("レイアウトの解析に失敗: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// LoadLayout はpathのYAMLファイルからLayoutを読み込む。
// pathが空の場合はDefaultLayoutを返す。
func LoadLayout(path string) (Layout, error) {
	if path == "" {
		return DefaultLayout(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, fmt.Errorf("レイアウトファイルを開けません: %w", err)
	}
	defer f.Close()
	return ParseLayout(f)
}

// Validate はLayoutの項目が表示可能かどうかを検証する。
func (l Layout) Validate() error {
	if len(l.Items) == 0 {
		return errors.New("ナビゲーション項目がありません")
	}
	for _, it := range l.Items {
		if err := validateItem(it, true); err != nil {
			return err
		}
	}
	return nil
}

func validateItem(it Item, topLevel bool) error {
	if it.Label == "" {
		return errors.New("ラベルのない項目があります")
	}
	switch it.Action {
	case ActionNavigate:
		if it.Path == "" && len(it.Children) == 0 {
			return fmt.Errorf("項目 %q に移動先がありません", it.Label)
		}
	case ActionLogout:
	default:
		return fmt.Errorf("項目 %q の操作 %q は不明です", it.Label, it.Action)
	}
	if len(it.Children) > 0 && !topLevel {
		return fmt.Errorf("項目 %q: メニューは入れ子にできません", it.Label)
	}
	for _, c := range it.Children {
		if err := validateItem(c, false); err != nil {
			return err
		}
	}
	return nil
}
