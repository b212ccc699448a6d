package live

import "errors"

var (
	// ErrTransport はリアルタイムチャネルの購読確立または維持に失敗したことを表す。
	ErrTransport = errors.New("live: リアルタイムチャネルの通信エラー")
	// ErrHandleClosed は閉じられたHandleに対する操作であることを表す。
	ErrHandleClosed = errors.New("live: ハンドルは閉じられています")
	// ErrCoordinatorClosed は破棄済みのCoordinatorに対する操作であることを表す。
	ErrCoordinatorClosed = errors.New("live: コーディネーターは破棄されています")
)
