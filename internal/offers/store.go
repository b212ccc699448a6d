package offers

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nao1215/quickhire/pkg/migration"
	"github.com/nao1215/quickhire/pkg/offer"
)

//go:embed migrations/*.sql
var migrations embed.FS

// timeLayout は日時カラムの書式。文字列の大小と時刻の前後が一致するよう桁数を固定する。
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	// ErrNotFound はオファーが存在しないことを表す。
	ErrNotFound = errors.New("オファーが見つかりません")
	// ErrForbidden はオファーを操作する権限がないことを表す。
	ErrForbidden = errors.New("このオファーを操作する権限がありません")
	// ErrInvalidTransition は許可されていないステータス遷移であることを表す。
	ErrInvalidTransition = errors.New("許可されていないステータス遷移です")
)

// Store はオファーをSQLiteに保存する。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// OpenStore はdsnのSQLiteデータベースを開き、マイグレーションを適用する。
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// SQLiteの書き込みは単一接続に揃える。:memory:の場合は接続ごとに別DBになる。
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

// Create はオファーを保存する。
func (s *Store) Create(ctx context.Context, o offer.Offer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offers (id, customer_id, freelancer_id, title, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerID, o.FreelancerID, o.Title, string(o.Status),
		formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("オファーの保存に失敗: %w", err)
	}
	return nil
}

// Get は指定したIDのオファーを返す。存在しない場合はErrNotFoundを返す。
func (s *Store) Get(ctx context.Context, id string) (offer.Offer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, freelancer_id, title, status, created_at, updated_at
		FROM offers WHERE id = ?`, id)
	return scanOffer(row)
}

// ListByCustomer は顧客が作成した全てのオファーを作成日時の新しい順に返す。
func (s *Store) ListByCustomer(ctx context.Context, customerID string) ([]offer.Offer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, freelancer_id, title, status, created_at, updated_at
		FROM offers WHERE customer_id = ?
		ORDER BY created_at DESC, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("オファー一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	offers := make([]offer.Offer, 0)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("オファー一覧の読み込みに失敗: %w", err)
	}
	return offers, nil
}

// UpdateStatus はフリーランサーとしてオファーのステータスを変更し、
// 変更後のオファーと変更前のステータスを返す。
func (s *Store) UpdateStatus(ctx context.Context, id, freelancerID string, to offer.Status) (offer.Offer, offer.Status, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return offer.Offer{}, "", fmt.Errorf("トランザクションの開始に失敗: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, customer_id, freelancer_id, title, status, created_at, updated_at
		FROM offers WHERE id = ?`, id)
	o, err := scanOffer(row)
	if err != nil {
		return offer.Offer{}, "", err
	}
	if o.FreelancerID != freelancerID {
		return offer.Offer{}, "", ErrForbidden
	}
	if !o.Status.CanTransitionTo(to) {
		return offer.Offer{}, "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}

	previous := o.Status
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE offers SET status = ?, updated_at = ? WHERE id = ?`,
		string(o.Status), formatTime(o.UpdatedAt), o.ID); err != nil {
		return offer.Offer{}, "", fmt.Errorf("ステータスの更新に失敗: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return offer.Offer{}, "", fmt.Errorf("トランザクションのコミットに失敗: %w", err)
	}
	return o, previous, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(row rowScanner) (offer.Offer, error) {
	var (
		o                    offer.Offer
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.FreelancerID, &o.Title, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return offer.Offer{}, ErrNotFound
		}
		return offer.Offer{}, fmt.Errorf("オファーの読み込みに失敗: %w", err)
	}
	o.Status = offer.Status(status)

	var err error
	if o.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return offer.Offer{}, fmt.Errorf("作成日時の解析に失敗: %w", err)
	}
	if o.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return offer.Offer{}, fmt.Errorf("更新日時の解析に失敗: %w", err)
	}
	return o, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
