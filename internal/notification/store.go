package notification

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nao1215/quickhire/pkg/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

// timeLayout は作成日時カラムの書式。文字列の大小と時刻の前後が一致するよう桁数を固定する。
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound は通知が存在しないことを表す。
var ErrNotFound = errors.New("通知が見つかりません")

// Notification は保存された通知。
type Notification struct {
	// ID は通知の一意識別子。
	ID string
	// UserID は通知先のユーザーID。
	UserID string
	// Title は通知のタイトル。
	Title string
	// Message は通知メッセージ。
	Message string
	// Variant は表示種別。
	Variant string
	// IsRead は通知の既読状態。
	IsRead bool
	// CreatedAt は通知の作成日時。
	CreatedAt time.Time
}

// Store は通知をSQLiteに保存する。
type Store struct {
	db *sql.DB
}

// OpenStore はdsnのSQLiteデータベースを開き、マイグレーションを適用する。
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := migration.Run(ctx, db, migrations, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("マイグレーションに失敗: %w", err)
	}
	return &Store{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Create は通知を保存する。CreatedAtがゼロ値の場合は現在時刻を使う。
func (s *Store) Create(ctx context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Variant == "" {
		n.Variant = "default"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, variant, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		n.ID, n.UserID, n.Title, n.Message, n.Variant, n.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("通知の保存に失敗: %w", err)
	}
	return nil
}

// Get は指定したIDの通知を返す。存在しない場合はErrNotFoundを返す。
func (s *Store) Get(ctx context.Context, id string) (Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, message, variant, is_read, created_at
		FROM notifications WHERE id = ?`, id)
	return scanNotification(row)
}

// ListByUser はユーザーの全通知を新しい順に返す。
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Notification, error) {
	return s.list(ctx, `
		SELECT id, user_id, title, message, variant, is_read, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC, id`, userID)
}

// ListUnread はユーザーの未読通知を新しい順に返す。
func (s *Store) ListUnread(ctx context.Context, userID string) ([]Notification, error) {
	return s.list(ctx, `
		SELECT id, user_id, title, message, variant, is_read, created_at
		FROM notifications WHERE user_id = ? AND is_read = 0
		ORDER BY created_at DESC, id`, userID)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("通知一覧の読み込みに失敗: %w", err)
	}
	return notifications, nil
}

// MarkAsRead は通知を既読にする。
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("通知の既読処理に失敗: %w", err)
	}
	return nil
}

// MarkAllAsRead はユーザーの全通知を既読にする。
func (s *Store) MarkAllAsRead(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("全通知の既読処理に失敗: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (Notification, error) {
	var (
		n         Notification
		isRead    int
		createdAt string
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Variant, &isRead, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, fmt.Errorf("通知の読み込みに失敗: %w", err)
	}
	n.IsRead = isRead != 0

	var err error
	if n.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return Notification{}, fmt.Errorf("作成日時の解析に失敗: %w", err)
	}
	return n, nil
}
