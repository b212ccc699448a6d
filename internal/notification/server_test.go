package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/quickhire/internal/live"
	"github.com/nao1215/quickhire/pkg/offer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// headerAuth はJWTミドルウェアの代わりにX-User-IDヘッダーからユーザーIDを設定する。
func headerAuth(c *gin.Context) {
	if userID := c.GetHeader("X-User-ID"); userID != "" {
		c.Set("user_id", userID)
	}
	c.Next()
}

// setupStore はインメモリSQLiteのStoreを生成する。
func setupStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// setupTestServer はテスト用の通知サーバーをインメモリSQLiteで構築する。
func setupTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	s := newServer("0", setupStore(t), headerAuth)
	return s, s.Handler()
}

// seedOfferNotification はオファーのステータス変更による通知をDBに直接挿入する。
func seedOfferNotification(t *testing.T, s *Server, id, userID string, status offer.Status, createdAt time.Time) live.Notification {
	t.Helper()

	n, ok := live.NotificationFor(status)
	if !ok {
		t.Fatalf("%qに対応する通知がない", status)
	}
	if err := s.store.Create(t.Context(), Notification{
		ID:        id,
		UserID:    userID,
		Title:     n.Title,
		Message:   n.Body,
		Variant:   string(n.Variant),
		CreatedAt: createdAt,
	}); err != nil {
		t.Fatalf("通知の挿入に失敗: %v", err)
	}
	return n
}

// doRequest はX-User-IDヘッダー付きのリクエストを実行する。
func doRequest(router http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeNotifications は通知一覧のレスポンスをデコードする。
func decodeNotifications(t *testing.T, w *httptest.ResponseRecorder) []notificationResponse {
	t.Helper()

	var got []notificationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v, body=%s", err, w.Body.String())
	}
	return got
}

// TestHealthCheck はヘルスチェックを検証する。
func TestHealthCheck(t *testing.T) {
	t.Parallel()

	_, router := setupTestServer(t)
	w := doRequest(router, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if body["service"] != "notification" {
		t.Errorf("service = %q, want notification", body["service"])
	}
}

// TestHandleSend は通知送信ハンドラを検証する。
func TestHandleSend(t *testing.T) {
	t.Parallel()

	accepted, _ := live.NotificationFor(offer.StatusAccepted)

	valid := []struct {
		name        string
		variant     string
		wantVariant string
	}{
		{name: "オファーの通知がdefaultで保存されること", variant: string(accepted.Variant), wantVariant: "default"},
		{name: "destructiveの通知が保存されること", variant: "destructive", wantVariant: "destructive"},
		{name: "variant未指定の場合はdefaultで保存されること", variant: "", wantVariant: "default"},
	}

	for _, tt := range valid {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, router := setupTestServer(t)
			req := sendRequest{UserID: "customer-1", Title: accepted.Title, Message: accepted.Body, Variant: tt.variant}
			w := doRequest(router, http.MethodPost, "/api/v1/internal/send", "customer-1", req)
			if w.Code != http.StatusCreated {
				t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
			}

			saved, err := s.store.ListByUser(t.Context(), "customer-1")
			if err != nil {
				t.Fatalf("ListByUser()でエラーが発生: %v", err)
			}
			if len(saved) != 1 {
				t.Fatalf("通知の数 = %d, want 1", len(saved))
			}
			if saved[0].Title != accepted.Title || saved[0].Message != accepted.Body {
				t.Errorf("保存された通知 = %+v", saved[0])
			}
			if saved[0].Variant != tt.wantVariant {
				t.Errorf("Variant = %q, want %q", saved[0].Variant, tt.wantVariant)
			}
		})
	}

	invalid := []struct {
		name     string
		caller   string
		req      sendRequest
		wantCode int
	}{
		{name: "user_idがない場合はBadRequest", caller: "customer-1", req: sendRequest{Title: accepted.Title, Message: accepted.Body}, wantCode: http.StatusBadRequest},
		{name: "titleがない場合はBadRequest", caller: "customer-1", req: sendRequest{UserID: "customer-1", Message: accepted.Body}, wantCode: http.StatusBadRequest},
		{name: "messageがない場合はBadRequest", caller: "customer-1", req: sendRequest{UserID: "customer-1", Title: accepted.Title}, wantCode: http.StatusBadRequest},
		{name: "不明なvariantはBadRequest", caller: "customer-1", req: sendRequest{UserID: "customer-1", Title: accepted.Title, Message: accepted.Body, Variant: "warning"}, wantCode: http.StatusBadRequest},
		{name: "他の顧客宛てはForbidden", caller: "customer-1", req: sendRequest{UserID: "customer-2", Title: accepted.Title, Message: accepted.Body}, wantCode: http.StatusForbidden},
		{name: "認証されていない場合はForbidden", caller: "", req: sendRequest{UserID: "customer-1", Title: accepted.Title, Message: accepted.Body}, wantCode: http.StatusForbidden},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, router := setupTestServer(t)
			w := doRequest(router, http.MethodPost, "/api/v1/internal/send", tt.caller, tt.req)
			if w.Code != tt.wantCode {
				t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			for _, userID := range []string{"customer-1", "customer-2"} {
				saved, err := s.store.ListByUser(t.Context(), userID)
				if err != nil {
					t.Fatalf("ListByUser()でエラーが発生: %v", err)
				}
				if len(saved) != 0 {
					t.Errorf("%sの通知の数 = %d, want 0", userID, len(saved))
				}
			}
		})
	}
}

// setupInbox は顧客2人分のオファー通知を持つサーバーを構築する。
// customer-1にはaccepted、rejected、completedの順で、customer-2にはacceptedの通知がある。
func setupInbox(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	s, router := setupTestServer(t)
	base := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	seedOfferNotification(t, s, "n-accepted", "customer-1", offer.StatusAccepted, base)
	seedOfferNotification(t, s, "n-rejected", "customer-1", offer.StatusRejected, base.Add(time.Minute))
	seedOfferNotification(t, s, "n-completed", "customer-1", offer.StatusCompleted, base.Add(2*time.Minute))
	seedOfferNotification(t, s, "n-other", "customer-2", offer.StatusAccepted, base)
	return s, router
}

// TestNotificationInbox は一覧、未読、既読処理を検証する。
func TestNotificationInbox(t *testing.T) {
	t.Parallel()

	t.Run("自分の通知が新しい順にvariant付きで返ること", func(t *testing.T) {
		t.Parallel()

		_, router := setupInbox(t)
		w := doRequest(router, http.MethodGet, "/api/v1/notifications", "customer-1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}

		got := decodeNotifications(t, w)
		wantIDs := []string{"n-completed", "n-rejected", "n-accepted"}
		wantTitles := []string{"Service Completed", "Offer Rejected", "Offer Accepted!"}
		if len(got) != len(wantIDs) {
			t.Fatalf("通知の数 = %d, want %d", len(got), len(wantIDs))
		}
		for i, n := range got {
			if n.ID != wantIDs[i] || n.Title != wantTitles[i] {
				t.Errorf("got[%d] = {%s %s}, want {%s %s}", i, n.ID, n.Title, wantIDs[i], wantTitles[i])
			}
			if n.UserID != "customer-1" || n.Variant != "default" || n.IsRead {
				t.Errorf("got[%d] = %+v", i, n)
			}
		}
	})

	t.Run("既読にした通知は未読一覧に含まれないこと", func(t *testing.T) {
		t.Parallel()

		_, router := setupInbox(t)
		w := doRequest(router, http.MethodPut, "/api/v1/notifications/n-rejected/read", "customer-1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}

		unread := decodeNotifications(t, doRequest(router, http.MethodGet, "/api/v1/notifications/unread", "customer-1", nil))
		if len(unread) != 2 {
			t.Fatalf("未読の数 = %d, want 2", len(unread))
		}
		for _, n := range unread {
			if n.ID == "n-rejected" {
				t.Error("既読にした通知が未読一覧に含まれている")
			}
		}

		all := decodeNotifications(t, doRequest(router, http.MethodGet, "/api/v1/notifications", "customer-1", nil))
		for _, n := range all {
			if n.ID == "n-rejected" && !n.IsRead {
				t.Error("一覧でis_readがfalseのまま")
			}
			if n.Variant != "default" {
				t.Errorf("Variant = %q, want default", n.Variant)
			}
		}
	})

	t.Run("全て既読にしても他の顧客の通知は未読のままであること", func(t *testing.T) {
		t.Parallel()

		_, router := setupInbox(t)
		w := doRequest(router, http.MethodPut, "/api/v1/notifications/read-all", "customer-1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}

		if got := decodeNotifications(t, doRequest(router, http.MethodGet, "/api/v1/notifications/unread", "customer-1", nil)); len(got) != 0 {
			t.Errorf("customer-1の未読の数 = %d, want 0", len(got))
		}
		other := decodeNotifications(t, doRequest(router, http.MethodGet, "/api/v1/notifications/unread", "customer-2", nil))
		if len(other) != 1 || other[0].ID != "n-other" {
			t.Errorf("customer-2の未読 = %+v", other)
		}
	})

	errorCases := []struct {
		name     string
		method   string
		path     string
		caller   string
		wantCode int
	}{
		{name: "他の顧客の通知を既読にするとForbidden", method: http.MethodPut, path: "/api/v1/notifications/n-other/read", caller: "customer-1", wantCode: http.StatusForbidden},
		{name: "存在しない通知を既読にするとNotFound", method: http.MethodPut, path: "/api/v1/notifications/missing/read", caller: "customer-1", wantCode: http.StatusNotFound},
		{name: "認証されていない一覧取得はUnauthorized", method: http.MethodGet, path: "/api/v1/notifications", caller: "", wantCode: http.StatusUnauthorized},
		{name: "認証されていない未読取得はUnauthorized", method: http.MethodGet, path: "/api/v1/notifications/unread", caller: "", wantCode: http.StatusUnauthorized},
		{name: "認証されていない全既読はUnauthorized", method: http.MethodPut, path: "/api/v1/notifications/read-all", caller: "", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, router := setupInbox(t)
			if w := doRequest(router, tt.method, tt.path, tt.caller, nil); w.Code != tt.wantCode {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}
