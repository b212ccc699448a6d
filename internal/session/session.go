// Package session は現在ログインしている顧客のセッションを管理する。
//
// セッションは開発用トークン発行エンドポイントなどで得たJWTから復元され、
// 変更はWatchで購読した全ての購読者に通知される。
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/nao1215/quickhire/pkg/middleware"
)

// ErrNoSession はログイン中のセッションが存在しないことを表す。
var ErrNoSession = errors.New("ログイン中のセッションがありません")

// Session はログイン中のユーザーを表す。
type Session struct {
	// UserID はユーザーID。
	UserID string
	// Email はメールアドレス。
	Email string
	// Role はユーザーのロール。
	Role middleware.Role
	// Token は認証に使用するJWT。
	Token string
}

// Change はセッションの変化を表す。
type Change struct {
	// Session は変化後のセッション。Presentがfalseの場合はゼロ値。
	Session Session
	// Present は変化後にセッションが存在するかどうか。
	Present bool
}

// Provider はセッションの保持と変更通知を行う。
type Provider struct {
	secret string

	mu       sync.Mutex
	current  Session
	present  bool
	watchers map[chan Change]struct{}
}

// NewProvider は新しいProviderを生成する。secretはJWTの検証に使用する。
func NewProvider(secret string) *Provider {
	return &Provider{
		secret:   secret,
		watchers: make(map[chan Change]struct{}),
	}
}

// Current は現在のセッションと、その有無を返す。
func (p *Provider) Current() (Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.present
}

// Login はトークンを検証してセッションを開始する。
// 同じユーザーで再ログインした場合もトークンは更新される。
func (p *Provider) Login(token string) (Session, error) {
	claims, err := middleware.ParseJWT(p.secret, token)
	if err != nil {
		return Session{}, fmt.Errorf("ログインに失敗: %w", err)
	}

	s := Session{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		Token:  token,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = s
	p.present = true
	p.broadcastLocked(Change{Session: s, Present: true})
	log.Printf("[Session] ログイン: user_id=%s", s.UserID)
	return s, nil
}

// Logout はセッションを終了する。セッションがない場合はErrNoSessionを返す。
func (p *Provider) Logout() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.present {
		return ErrNoSession
	}
	log.Printf("[Session] ログアウト: user_id=%s", p.current.UserID)
	p.current = Session{}
	p.present = false
	p.broadcastLocked(Change{})
	return nil
}

// Watch はセッションの変化を受信するチャネルと、購読を解除する関数を返す。
// チャネルには購読開始時点の状態が最初に送られる。
// 受信が追いつかない場合、未受信の古い変化は最新のもので置き換えられる。
func (p *Provider) Watch() (<-chan Change, func()) {
	ch := make(chan Change, 1)

	p.mu.Lock()
	p.watchers[ch] = struct{}{}
	ch <- Change{Session: p.current, Present: p.present}
	p.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers, ch)
			p.mu.Unlock()
			close(ch)
		})
	}
	return ch, stop
}

func (p *Provider) broadcastLocked(c Change) {
	for ch := range p.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- c
	}
}
