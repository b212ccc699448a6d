// Package offer はサービスオファーとその変更イベントの型を提供する。
//
// オファーのステータス、リアルタイムチャネルで配信されるChangeEvent、
// およびそのJSONシリアライズを定義する。サーバー側（offersサービス）と
// クライアント側（live）の双方が同じ型を共有する。
package offer
