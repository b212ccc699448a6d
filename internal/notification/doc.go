// Package notification は通知サービスの内部実装を提供する。
//
// オファーの承諾・辞退・完了などでユーザーに表示した通知を保存し、
// 一覧取得や既読管理を行う。Sinkはナビゲーションから通知を送信する
// live.NotificationSinkの実装である。
package notification
