package live

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/nao1215/quickhire/pkg/offer"
)

// ReconcilerOption はReconcilerの設定を変更する関数。
type ReconcilerOption func(*Reconciler)

// WithOnCountChange は件数が変化したときに呼び出す関数を設定する。
// fnはReconcilerのロックを保持したまま呼び出されるため、
// fnからReconcilerのメソッドを呼び出してはならない。
func WithOnCountChange(fn func(count int)) ReconcilerOption {
	return func(r *Reconciler) {
		r.onChange = fn
	}
}

// Reconciler は保留中オファー件数をスナップショットから再計算する。
//
// 取得は並行に実行でき、結果は完了した順に反映される（後に完了したものが勝つ）。
// Resetで世代を進めると、それ以前に開始した取得の結果は破棄される。
type Reconciler struct {
	client   SnapshotClient
	onChange func(count int)

	mu    sync.Mutex
	count int
	// epoch はセッションの世代。Resetのたびに進む。
	epoch uint64
	// ctx は現在の世代で開始した取得のコンテキスト。
	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// NewReconciler は新しいReconcilerを生成する。
func NewReconciler(client SnapshotClient, opts ...ReconcilerOption) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reconciler{
		client: client,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Count は現在の件数を返す。
func (r *Reconciler) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Epoch は現在の世代を返す。
func (r *Reconciler) Epoch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch
}

// Refresh はuserIDのオファー一覧を取得して件数を再計算し、反映後の件数を返す。
// 取得に失敗した場合は件数を変更せずにエラーを返す。
// 取得中に世代が進んだ場合、結果は反映されず現在の件数が返る。
func (r *Reconciler) Refresh(ctx context.Context, userID string) (int, error) {
	return r.refresh(ctx, r.Epoch(), userID)
}

// refresh はepochの世代で取得を行う。epochが現在の世代と異なる結果は破棄する。
func (r *Reconciler) refresh(ctx context.Context, epoch uint64, userID string) (int, error) {
	offers, err := r.client.OffersForUser(ctx, userID)
	if err != nil {
		if r.Epoch() != epoch {
			log.Printf("[Live] 古い世代の取得エラーを破棄: user_id=%s: %v", userID, err)
			return r.Count(), nil
		}
		log.Printf("[Live] オファー一覧の取得に失敗: user_id=%s: %v", userID, err)
		return r.Count(), fmt.Errorf("オファー一覧の取得に失敗: %w", err)
	}

	count, applied := r.apply(epoch, offer.CountResponded(offers))
	if !applied {
		log.Printf("[Live] 古い世代の取得結果を破棄: user_id=%s", userID)
	}
	return count, nil
}

func (r *Reconciler) apply(epoch uint64, count int) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if epoch != r.epoch {
		return r.count, false
	}
	r.setLocked(count)
	return r.count, true
}

func (r *Reconciler) setLocked(count int) {
	if r.count == count {
		return
	}
	r.count = count
	if r.onChange != nil {
		r.onChange(count)
	}
}

// Trigger はRefreshを別のゴルーチンで開始し、完了を待たずに戻る。
// 世代は呼び出し時点で確定する。取得はその世代のコンテキストで実行され、
// Resetで中断される。中断されなかった取得の結果もResetの後は破棄される。
func (r *Reconciler) Trigger(userID string) {
	r.mu.Lock()
	ctx, epoch := r.ctx, r.epoch
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		_, _ = r.refresh(ctx, epoch, userID)
	}()
}

// Wait はTriggerで開始した全ての取得の完了を待つ。
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// Reset は世代を進めて実行中の取得を中断し、件数を0に戻す。
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.epoch++
	r.cancel()
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.setLocked(0)
}

// Close は実行中の取得を中断し、完了を待つ。
func (r *Reconciler) Close() {
	r.Reset()
	r.Wait()
}
