// Package config は環境変数からサービス設定を読み込む共通処理を提供する。
//
// 各サービスはenvタグ付きの設定構造体を定義し、Parseで値を埋める。
// 未設定の項目はenvDefaultタグの値で補完される。
package config
