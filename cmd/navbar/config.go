package main

import "time"

// navbarConfig は顧客ナビゲーションの設定。環境変数から読み込む。
type navbarConfig struct {
	// OffersURL はオファーサービスのベースURL。
	OffersURL string `env:"OFFERS_URL" envDefault:"http://localhost:8087"`
	// NotificationURL は通知サービスのベースURL。空の場合は通知を保存しない。
	NotificationURL string `env:"NOTIFICATION_URL"`
	// RedisURL はリアルタイムチャネルのRedisの接続先。
	RedisURL string `env:"REDIS_URL"`
	// JWTSecret はセッショントークンの検証鍵。
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-key"`
	// SessionToken は起動時にログインするセッショントークン。
	SessionToken string `env:"SESSION_TOKEN"`
	// DevUserID はSessionTokenが空の場合に開発用トークンを取得する顧客ID。
	DevUserID string `env:"DEV_USER_ID"`
	// LayoutPath はナビゲーション項目のYAMLファイル。空の場合は既定の項目を使う。
	LayoutPath string `env:"NAV_LAYOUT"`
	// StartPath は起動時に表示しているパス。
	StartPath string `env:"NAV_START_PATH" envDefault:"/"`
	// LogPath はログの出力先ファイル。空の場合はログを出力しない。
	LogPath string `env:"NAV_LOG_PATH" envDefault:"navbar.log"`
	// OpenMaxAttempts はチャネル購読の最大試行回数。
	OpenMaxAttempts int `env:"LIVE_OPEN_MAX_ATTEMPTS" envDefault:"1"`
	// OpenBackOff はチャネル購読の再試行間隔の初期値。
	OpenBackOff time.Duration `env:"LIVE_OPEN_BACKOFF" envDefault:"500ms"`
	// OpenMaxBackOff はチャネル購読の再試行間隔の上限。
	OpenMaxBackOff time.Duration `env:"LIVE_OPEN_MAX_BACKOFF" envDefault:"10s"`
	// RequestTimeout はHTTPリクエストのタイムアウト。
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
}
