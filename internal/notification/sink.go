package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/quickhire/internal/live"
	"github.com/nao1215/quickhire/internal/session"
	"github.com/nao1215/quickhire/pkg/httpclient"
)

// ErrRecipientMismatch は通知先がログイン中のユーザーと異なることを表す。
var ErrRecipientMismatch = errors.New("通知先がログイン中のユーザーと一致しません")

// SessionSource は通知先となる現在のセッションを返す。
type SessionSource interface {
	Current() (session.Session, bool)
}

// Sink は通知を通知サービスへ送信して保存するlive.NotificationSink。
type Sink struct {
	client   *httpclient.Client
	sessions SessionSource
}

var _ live.NotificationSink = (*Sink)(nil)

// NewSink は新しいSinkを生成する。
func NewSink(baseURL string, sessions SessionSource, opts ...httpclient.Option) *Sink {
	return &Sink{
		client:   httpclient.New(baseURL, opts...),
		sessions: sessions,
	}
}

// Show は通知をn.UserID宛てに送信する。n.UserIDが空の場合は現在のユーザー宛てとする。
// セッションがない場合はsession.ErrNoSessionを返す。
// n.UserIDが現在のユーザーと異なる場合は送信せずにErrRecipientMismatchを返す。
func (s *Sink) Show(ctx context.Context, n live.Notification) error {
	current, ok := s.sessions.Current()
	if !ok {
		return session.ErrNoSession
	}
	if n.UserID != "" && n.UserID != current.UserID {
		return fmt.Errorf("%w: user_id=%s", ErrRecipientMismatch, n.UserID)
	}

	req := sendRequest{
		UserID:  current.UserID,
		Title:   n.Title,
		Message: n.Body,
		Variant: string(n.Variant),
	}
	ctx = httpclient.WithToken(ctx, current.Token)
	if err := s.client.PostJSON(ctx, "/api/v1/internal/send", req, nil); err != nil {
		return fmt.Errorf("通知の送信に失敗: %w", err)
	}
	return nil
}
