// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// セッショントークン（JWT）の発行と検証、パニックリカバリ、
// CORS設定など、offersサービスと通知サービスで共通して使用する処理を含む。
package middleware
