// Package httpclient はサービス間およびクライアントからのHTTP通信を行うクライアントを提供する。
//
// ナビゲーションクライアントがオファーのスナップショットを取得する際や、
// 通知サービスへ通知を送信する際に使用する。コンテキストに設定された
// セッショントークンとユーザーIDをリクエストヘッダーへ伝播する。
package httpclient
