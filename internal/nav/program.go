package nav

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nao1215/quickhire/internal/live"
)

// Sender はBubble Teaプログラムへメッセージを送る。*tea.Programが満たす。
type Sender interface {
	Send(msg tea.Msg)
}

// ToastSink は通知をトーストとして表示するlive.NotificationSink。
type ToastSink struct {
	sender Sender
}

var _ live.NotificationSink = (*ToastSink)(nil)

// NewToastSink は新しいToastSinkを生成する。
func NewToastSink(sender Sender) *ToastSink {
	return &ToastSink{sender: sender}
}

// Show は通知をトーストとして送る。
func (s *ToastSink) Show(_ context.Context, n live.Notification) error {
	s.sender.Send(ToastMsg{Notification: n})
	return nil
}

// CountObserver は件数の変化をCountMsgとして送る関数を返す。
// live.WithOnCountChangeに渡して使う。
func CountObserver(sender Sender) func(int) {
	return func(count int) {
		sender.Send(CountMsg{Count: count})
	}
}
