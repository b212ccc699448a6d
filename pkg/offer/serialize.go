package offer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrMissingStatus はイベントに変更後のステータスが含まれていないことを表す。
var ErrMissingStatus = errors.New("new_statusが含まれていません")

// NewUpdateEvent はオファーのステータス更新を表すChangeEventを生成する。
// previousが空文字列の場合、変更前ステータスは不明として扱う。
func NewUpdateEvent(o Offer, previous Status) ChangeEvent {
	ev := ChangeEvent{
		ID:         uuid.New().String(),
		Type:       EventUpdate,
		OwnerID:    o.CustomerID,
		OfferID:    o.ID,
		NewStatus:  o.Status,
		OccurredAt: time.Now().UTC(),
	}
	if previous != "" {
		prev := previous
		ev.PreviousStatus = &prev
	}
	return ev
}

// Encode はChangeEventをチャネル配信用のJSONにシリアライズする。
func Encode(ev ChangeEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("ChangeEventのシリアライズに失敗: %w", err)
	}
	return data, nil
}

// Decode はチャネルから受信したJSONをChangeEventにデシリアライズする。
// 変更後のステータスを持たないペイロードはエラーとする。
func Decode(data []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ChangeEvent{}, fmt.Errorf("ChangeEventのデシリアライズに失敗: %w", err)
	}
	if ev.NewStatus == "" {
		return ChangeEvent{}, ErrMissingStatus
	}
	return ev, nil
}
