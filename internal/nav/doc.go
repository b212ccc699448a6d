// Package nav は顧客向けのボトムナビゲーションをBubble Teaで表示する。
//
// 保留中オファー件数のバッジ、通知のトースト表示、アカウントメニューからの
// ログアウトを扱う。件数と通知はliveパッケージからメッセージとして届く。
package nav
