// Package offers はサービスオファーを管理するHTTPサービスと、そのクライアントを提供する。
//
// 顧客はフリーランサーにオファーを作成し、フリーランサーはオファーを
// 承諾・辞退・完了に進める。ステータスが変わるたびに顧客のトピックへ
// UPDATEイベントを発行する。オファーはSQLiteに保存する。
package offers
