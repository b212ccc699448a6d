package notification

// Config は通知サービスの設定。環境変数から読み込む。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `env:"PORT" envDefault:"8086"`
	// DatabasePath はSQLiteデータベースのDSN。
	DatabasePath string `env:"NOTIFICATION_DB_PATH" envDefault:"/data/notification.db?_journal_mode=WAL&_busy_timeout=5000"`
	// JWTSecret はセッショントークンの署名鍵。
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-key"`
}
