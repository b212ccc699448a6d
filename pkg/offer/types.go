package offer

import (
	"time"
)

// Status はサービスオファーの状態を表す。
type Status string

const (
	// StatusPending は顧客がオファーを送信し、フリーランサーの応答待ちであることを表す。
	StatusPending Status = "pending"
	// StatusAccepted はフリーランサーがオファーを承諾したことを表す。
	StatusAccepted Status = "accepted"
	// StatusRejected はフリーランサーがオファーを辞退したことを表す。
	StatusRejected Status = "rejected"
	// StatusCompleted はサービスの提供が完了したことを表す。
	StatusCompleted Status = "completed"
)

// Valid は既知のステータスかどうかを返す。
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted:
		return true
	default:
		return false
	}
}

// Responded はフリーランサーが応答済み（承諾または辞退）のステータスかどうかを返す。
// 未確認件数バッジの集計対象はこのステータスのオファーである。
func (s Status) Responded() bool {
	return s == StatusAccepted || s == StatusRejected
}

// CanTransitionTo は現在のステータスからnextへの遷移が許可されているかを返す。
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusAccepted || next == StatusRejected
	case StatusAccepted:
		return next == StatusCompleted
	default:
		return false
	}
}

// EventType はリアルタイムチャネルで配信される変更操作の種類を表す。
type EventType string

const (
	// EventInsert はオファーが作成されたことを表す。
	EventInsert EventType = "INSERT"
	// EventUpdate はオファーが更新されたことを表す。
	EventUpdate EventType = "UPDATE"
	// EventDelete はオファーが削除されたことを表す。
	EventDelete EventType = "DELETE"
)

// Offer は顧客がフリーランサーに送ったサービスオファー。
// サーバー側が所有し、クライアント側では読み取り専用として扱う。
type Offer struct {
	// ID はオファーの一意識別子（UUID）。
	ID string `json:"id"`
	// CustomerID はオファーを所有する顧客のユーザーID。
	CustomerID string `json:"customer_id"`
	// FreelancerID はオファー先のフリーランサーのユーザーID。
	FreelancerID string `json:"freelancer_id"`
	// Title はオファーの件名。
	Title string `json:"title"`
	// Status はオファーの現在のステータス。
	Status Status `json:"status"`
	// CreatedAt はオファーの作成日時。
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt はオファーの最終更新日時。
	UpdatedAt time.Time `json:"updated_at"`
}

// ChangeEvent は1件のオファーに対する1回の変更操作を表す不変のレコード。
// リアルタイムチャネルから一度だけ消費され、永続化はされない。
type ChangeEvent struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// Type は変更操作の種類。
	Type EventType `json:"type"`
	// OwnerID は変更されたオファーを所有する顧客のユーザーID。
	OwnerID string `json:"owner_id"`
	// OfferID は変更されたオファーのID。
	OfferID string `json:"offer_id"`
	// PreviousStatus は変更前のステータス。不明な場合はnil。
	PreviousStatus *Status `json:"previous_status,omitempty"`
	// NewStatus は変更後のステータス。
	NewStatus Status `json:"new_status"`
	// OccurredAt は変更が発生した日時。
	OccurredAt time.Time `json:"occurred_at"`
}

// CountResponded はスナップショット中の応答済み（承諾または辞退）オファーの件数を返す。
// 閲覧済みかどうかは考慮しない。
func CountResponded(offers []Offer) int {
	count := 0
	for _, o := range offers {
		if o.Status.Responded() {
			count++
		}
	}
	return count
}
