package live

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pgregory.net/rapid"

	"github.com/nao1215/quickhire/pkg/offer"
)

// TestReconciler_Refresh はスナップショットからの件数再計算を検証する。
func TestReconciler_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("承諾と辞退のオファーが数えられること", func(t *testing.T) {
		t.Parallel()

		client := newFixedClient()
		client.set("userA", offer.StatusAccepted, offer.StatusPending, offer.StatusRejected)
		r := NewReconciler(client)

		got, err := r.Refresh(context.Background(), "userA")
		if err != nil {
			t.Fatalf("Refresh()でエラーが発生: %v", err)
		}
		if got != 2 {
			t.Errorf("Refresh() = %d, want 2", got)
		}
		if r.Count() != 2 {
			t.Errorf("Count() = %d, want 2", r.Count())
		}
	})

	t.Run("取得に失敗した場合は直前の件数が保たれること", func(t *testing.T) {
		t.Parallel()

		client := newFixedClient()
		client.set("userA", offer.StatusAccepted)
		r := NewReconciler(client)
		ctx := context.Background()

		if _, err := r.Refresh(ctx, "userA"); err != nil {
			t.Fatalf("Refresh()でエラーが発生: %v", err)
		}

		cause := errors.New("接続拒否")
		client.fail(cause)
		got, err := r.Refresh(ctx, "userA")
		if !errors.Is(err, cause) {
			t.Errorf("Refresh() error = %v, want %v", err, cause)
		}
		if got != 1 || r.Count() != 1 {
			t.Errorf("件数 = %d (Count() = %d), want 1", got, r.Count())
		}
	})

	t.Run("新しいスナップショットが前の件数を置き換えること", func(t *testing.T) {
		t.Parallel()

		client := newFixedClient()
		client.set("userA", offer.StatusAccepted, offer.StatusRejected, offer.StatusRejected)
		var changes []int
		r := NewReconciler(client, WithOnCountChange(func(n int) { changes = append(changes, n) }))
		ctx := context.Background()

		if _, err := r.Refresh(ctx, "userA"); err != nil {
			t.Fatalf("Refresh()でエラーが発生: %v", err)
		}
		client.set("userA", offer.StatusCompleted)
		if _, err := r.Refresh(ctx, "userA"); err != nil {
			t.Fatalf("Refresh()でエラーが発生: %v", err)
		}
		if _, err := r.Refresh(ctx, "userA"); err != nil {
			t.Fatalf("Refresh()でエラーが発生: %v", err)
		}

		if len(changes) != 2 || changes[0] != 3 || changes[1] != 0 {
			t.Errorf("変化の通知 = %v, want [3 0]", changes)
		}
	})
}

// TestReconciler_LastCompletionWins は重なった取得のうち後に完了したものが反映されることを検証する。
func TestReconciler_LastCompletionWins(t *testing.T) {
	t.Parallel()

	client := newControlledClient()
	var (
		mu      sync.Mutex
		changes []int
	)
	r := NewReconciler(client, WithOnCountChange(func(n int) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, n)
	}))

	// R1を先に開始し、R2を後から開始する。
	r.Trigger("userA")
	r1 := client.next(t)
	r.Trigger("userA")
	r2 := client.next(t)

	// R2を先に完了させ、R1を後に完了させる。
	r2.complete(offer.StatusAccepted, offer.StatusAccepted, offer.StatusRejected)
	eventually(t, "R2の結果が反映される", func() bool { return r.Count() == 3 })
	r1.complete(offer.StatusRejected)
	r.Wait()

	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1 (後に完了したR1の結果)", r.Count())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 2 || changes[0] != 3 || changes[1] != 1 {
		t.Errorf("変化の通知 = %v, want [3 1]", changes)
	}
}

// TestReconciler_Reset は世代の切り替えを検証する。
func TestReconciler_Reset(t *testing.T) {
	t.Parallel()

	t.Run("Reset前に開始した取得の結果は破棄されること", func(t *testing.T) {
		t.Parallel()

		client := newControlledClient()
		r := NewReconciler(client)

		done := make(chan int, 1)
		go func() {
			n, _ := r.Refresh(context.Background(), "userA")
			done <- n
		}()
		call := client.next(t)

		before := r.Epoch()
		r.Reset()
		if r.Epoch() != before+1 {
			t.Errorf("Epoch() = %d, want %d", r.Epoch(), before+1)
		}

		call.complete(offer.StatusAccepted, offer.StatusRejected)
		if n := <-done; n != 0 {
			t.Errorf("Refresh() = %d, want 0", n)
		}
		if r.Count() != 0 {
			t.Errorf("Count() = %d, want 0", r.Count())
		}
	})

	t.Run("Resetで実行中のTriggerが中断されること", func(t *testing.T) {
		t.Parallel()

		client := newControlledClient()
		r := NewReconciler(client)

		r.Trigger("userA")
		client.next(t)
		r.Reset()
		r.Wait()

		if r.Count() != 0 {
			t.Errorf("Count() = %d, want 0", r.Count())
		}
	})

	t.Run("コンテキストを無視する取得でもTrigger後にResetした結果は破棄されること", func(t *testing.T) {
		t.Parallel()

		client := newFixedClient()
		client.set("userA", offer.StatusAccepted, offer.StatusRejected, offer.StatusAccepted)
		r := NewReconciler(client)

		for i := range 200 {
			r.Trigger("userA")
			r.Reset()
			r.Wait()
			if r.Count() != 0 {
				t.Fatalf("%d回目: Count() = %d, want 0", i, r.Count())
			}
		}
	})

	t.Run("コンテキストを無視する実行中の取得の結果もReset後は破棄されること", func(t *testing.T) {
		t.Parallel()

		client := newBlockingClient()
		client.set("userA", offer.StatusAccepted, offer.StatusRejected)
		r := NewReconciler(client)

		r.Trigger("userA")
		client.waitStarted(t)
		r.Reset()
		client.release()
		r.Wait()

		if r.Count() != 0 {
			t.Errorf("Count() = %d, want 0", r.Count())
		}
	})

	t.Run("Resetで件数が0に戻り通知されること", func(t *testing.T) {
		t.Parallel()

		client := newFixedClient()
		client.set("userA", offer.StatusAccepted)
		var changes []int
		r := NewReconciler(client, WithOnCountChange(func(n int) { changes = append(changes, n) }))

		if _, err := r.Refresh(context.Background(), "userA"); err != nil {
			t.Fatalf("Refresh()でエラーが発生: %v", err)
		}
		r.Reset()

		if r.Count() != 0 {
			t.Errorf("Count() = %d, want 0", r.Count())
		}
		if len(changes) != 2 || changes[1] != 0 {
			t.Errorf("変化の通知 = %v, want [1 0]", changes)
		}
	})
}

// TestReconciler_CountProperty は任意のスナップショットに対して
// Refreshの結果が承諾・辞退オファーの数と一致することを検証する。
func TestReconciler_CountProperty(t *testing.T) {
	t.Parallel()

	statusGen := rapid.SampledFrom([]offer.Status{
		offer.StatusPending, offer.StatusAccepted, offer.StatusRejected, offer.StatusCompleted,
	})

	rapid.Check(t, func(t *rapid.T) {
		statuses := rapid.SliceOf(statusGen).Draw(t, "statuses")

		client := newFixedClient()
		client.set("userA", statuses...)
		r := NewReconciler(client)

		want := 0
		for _, s := range statuses {
			if s == offer.StatusAccepted || s == offer.StatusRejected {
				want++
			}
		}

		got, err := r.Refresh(context.Background(), "userA")
		if err != nil {
			t.Fatalf("Refresh()でエラーが発生: %v", err)
		}
		if got != want {
			t.Fatalf("Refresh() = %d, want %d", got, want)
		}
	})
}
