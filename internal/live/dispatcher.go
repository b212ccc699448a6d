package live

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/quickhire/pkg/offer"
)

// notifications は変更後ステータスごとに表示する通知。
// 含まれないステータスでは通知しない。
var notifications = map[offer.Status]Notification{
	offer.StatusAccepted: {
		Title:   "Offer Accepted!",
		Body:    "A freelancer has accepted your service offer",
		Variant: VariantDefault,
	},
	offer.StatusRejected: {
		Title:   "Offer Rejected",
		Body:    "A freelancer has rejected your service offer",
		Variant: VariantDefault,
	},
	offer.StatusCompleted: {
		Title:   "Service Completed",
		Body:    "A service has been marked as completed",
		Variant: VariantDefault,
	},
}

// NotificationFor は変更後ステータスに対応する通知を返す。
// 通知しないステータスの場合はfalseを返す。
func NotificationFor(status offer.Status) (Notification, bool) {
	n, ok := notifications[status]
	return n, ok
}

// Dispatcher はChangeEventを通知に変換して各Sinkに表示する。
// 重複排除は行わず、対応するイベント1件につき各Sinkへちょうど1回表示する。
type Dispatcher struct {
	sinks []NotificationSink
}

// NewDispatcher は新しいDispatcherを生成する。
func NewDispatcher(sinks ...NotificationSink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

// OnEvent はイベントに対応する通知を全Sinkへ並行に表示し、通知したかどうかを返す。
// Sinkのエラーはログに記録し、他のSinkへの表示は継続する。
func (d *Dispatcher) OnEvent(ctx context.Context, ev offer.ChangeEvent) bool {
	n, ok := NotificationFor(ev.NewStatus)
	if !ok {
		return false
	}
	n.UserID = ev.OwnerID

	var g errgroup.Group
	for _, sink := range d.sinks {
		g.Go(func() error {
			if err := sink.Show(ctx, n); err != nil {
				log.Printf("[Live] 通知の表示に失敗: offer_id=%s: %v", ev.OfferID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return true
}
