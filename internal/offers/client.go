package offers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nao1215/quickhire/pkg/httpclient"
	"github.com/nao1215/quickhire/pkg/offer"
)

// TokenSource は呼び出し時点のセッショントークンを返す関数。
type TokenSource func() string

// Client はオファーサービスのHTTPクライアント。
type Client struct {
	http  *httpclient.Client
	token TokenSource
}

// NewClient は新しいClientを生成する。tokenは各リクエストの認証に使用する。
func NewClient(baseURL string, token TokenSource, opts ...httpclient.Option) *Client {
	return &Client{
		http:  httpclient.New(baseURL, opts...),
		token: token,
	}
}

func (c *Client) authorize(ctx context.Context) context.Context {
	if c.token == nil {
		return ctx
	}
	return httpclient.WithToken(ctx, c.token())
}

// OffersForUser は顧客の全オファーのスナップショットを取得する。
func (c *Client) OffersForUser(ctx context.Context, userID string) ([]offer.Offer, error) {
	var offers []offer.Offer
	path := fmt.Sprintf("/api/v1/customers/%s/offers", url.PathEscape(userID))
	if err := c.http.GetJSON(c.authorize(ctx), path, &offers); err != nil {
		return nil, fmt.Errorf("オファー一覧の取得に失敗: %w", err)
	}
	return offers, nil
}

// Create はfreelancerIDへのオファーを作成する。
func (c *Client) Create(ctx context.Context, freelancerID, title string) (offer.Offer, error) {
	var o offer.Offer
	req := createRequest{FreelancerID: freelancerID, Title: title}
	if err := c.http.PostJSON(c.authorize(ctx), "/api/v1/offers", req, &o); err != nil {
		return offer.Offer{}, fmt.Errorf("オファーの作成に失敗: %w", err)
	}
	return o, nil
}

// UpdateStatus はオファーのステータスを変更する。
func (c *Client) UpdateStatus(ctx context.Context, offerID string, status offer.Status) (offer.Offer, error) {
	var o offer.Offer
	path := fmt.Sprintf("/api/v1/offers/%s/status", url.PathEscape(offerID))
	if err := c.http.PutJSON(c.authorize(ctx), path, updateStatusRequest{Status: status}, &o); err != nil {
		return offer.Offer{}, fmt.Errorf("ステータスの変更に失敗: %w", err)
	}
	return o, nil
}

// devTokenResponse は開発用トークン発行エンドポイントのレスポンス。
type devTokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// DevToken は開発用エンドポイントから顧客userIDのトークンを取得する。
func (c *Client) DevToken(ctx context.Context, userID string) (string, error) {
	var resp devTokenResponse
	req := devTokenRequest{UserID: userID}
	if err := c.http.PostJSON(ctx, "/auth/dev-token", req, &resp); err != nil {
		return "", fmt.Errorf("開発用トークンの取得に失敗: %w", err)
	}
	return resp.Token, nil
}
