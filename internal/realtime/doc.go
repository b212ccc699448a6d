// Package realtime はオファー変更イベントを配信するpublish/subscribeチャネルを提供する。
//
// トピックは顧客ごとに分かれており（customer-offers-updates-<ユーザーID>）、
// 購読時に指定したFilterで変更操作の種類と所有者を絞り込む。
// 実装としてプロセス内のBrokerと、Redis Pub/Subを用いるRedisChannelを持つ。
// いずれの実装もUnsubscribe後は新しいイベントを配信しない。
package realtime
