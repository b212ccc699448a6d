package offers

// Config はオファーサービスの設定。環境変数から読み込む。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `env:"PORT" envDefault:"8087"`
	// DatabasePath はSQLiteデータベースのDSN。
	DatabasePath string `env:"OFFERS_DB_PATH" envDefault:"/data/offers.db?_journal_mode=WAL&_busy_timeout=5000"`
	// JWTSecret はセッショントークンの署名鍵。
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-key"`
	// RedisURL はイベントを発行するRedisの接続先。空の場合はプロセス内で配信する。
	RedisURL string `env:"REDIS_URL"`
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	// DevTokens は開発用トークン発行エンドポイントを有効にするかどうか。
	DevTokens bool `env:"DEV_TOKENS" envDefault:"true"`
}
