// Package live は顧客ごとのリアルタイム購読と、保留中オファー件数の整合を担う。
//
// 構成要素は次の4つである。
//
//   - SubscriptionManager: ユーザー単位のチャネル購読（Handle）を高々1つ保持する
//   - Reconciler: スナップショットの再取得で件数を全量再計算する
//   - Dispatcher: ステータス変更ごとに通知を1件だけ表示する
//   - Coordinator: セッションの変化に合わせて上記を開閉する
//
// 件数の取得は並行に実行され、完了した順に反映される。
// セッションが切り替わると世代が進み、古い世代の取得結果は破棄される。
package live
