package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Parse は環境変数を読み込んでtargetの構造体に設定する。
// targetはenvタグ付きの構造体へのポインタでなければならない。
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	return nil
}

// Load は型Tの設定を環境変数から読み込んで返す。
func Load[T any]() (T, error) {
	var cfg T
	if err := Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
