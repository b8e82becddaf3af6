package venue

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/arbbot/goarb/pkg/ratelimit"
)

var venueLog = logrus.WithField("module", "venue")

// Client 场内 REST 客户端。
// resty 会自动从环境变量读取代理配置（HTTP_PROXY, HTTPS_PROXY）。
// 所有请求先过令牌桶，把限流挡在客户端这一侧。
type Client struct {
	http    *resty.Client
	limiter *ratelimit.TokenBucket
}

// NewClient 创建 REST 客户端。apiKey 通过请求头送出。
func NewClient(baseURL, apiKey string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			// 遇到 429 限流时按 Retry-After 头等待
			if resp.StatusCode() == 429 {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if wait, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return wait, nil
					}
				}
				return 10 * time.Second, nil
			}
			return 0, nil
		}).
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", "Bearer "+apiKey)
	return &Client{
		http: http,
		// 场内限流约 10 请求/秒，留一点余量
		limiter: ratelimit.NewTokenBucket(10, 8),
	}
}

type marketsResponse struct {
	Markets []marketJSON `json:"markets"`
	Cursor  string       `json:"cursor"`
}

// Markets 拉取一个 series 下的全部市场，自动翻页。
func (c *Client) Markets(ctx context.Context, seriesTicker string) ([]Market, error) {
	var out []Market
	cursor := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limiter")
		}
		var page marketsResponse
		req := c.http.R().
			SetContext(ctx).
			SetQueryParam("series_ticker", seriesTicker).
			SetQueryParam("limit", "200").
			SetResult(&page)
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}
		resp, err := req.Get("/trade-api/v2/markets")
		if err != nil {
			return nil, errors.Wrapf(err, "fetch markets for series %s", seriesTicker)
		}
		if resp.IsError() {
			return nil, errors.Errorf("fetch markets for series %s: status %d: %s",
				seriesTicker, resp.StatusCode(), resp.String())
		}
		for i := range page.Markets {
			out = append(out, page.Markets[i].toMarket())
		}
		if page.Cursor == "" || len(page.Markets) == 0 {
			break
		}
		cursor = page.Cursor
	}
	venueLog.Debugf("fetched %d markets for series %s", len(out), seriesTicker)
	return out, nil
}

type createOrderRequest struct {
	Ticker        string `json:"ticker"`
	ClientOrderID string `json:"client_order_id"`
	Side          string `json:"side"`
	Action        string `json:"action"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
	YesPriceCents int    `json:"yes_price,omitempty"`
}

type orderJSON struct {
	OrderID        string `json:"order_id"`
	Status         string `json:"status"`
	FillCount      int    `json:"fill_count"`
	RemainingCount int    `json:"remaining_count"`
}

type createOrderResponse struct {
	Order orderJSON `json:"order"`
}

// SubmitOrder 提交限价单。isTaker 只影响调用方的费用预估与日志，
// 场内按成交角色自行计费；client_order_id 用 uuid 保证提交幂等。
func (c *Client) SubmitOrder(ctx context.Context, ticker string, quantity, priceCents int, isBuy, isTaker bool) (Order, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Order{}, errors.Wrap(err, "rate limiter")
	}
	action := "buy"
	if !isBuy {
		action = "sell"
	}
	body := createOrderRequest{
		Ticker:        ticker,
		ClientOrderID: uuid.NewString(),
		Side:          "yes",
		Action:        action,
		Count:         quantity,
		Type:          "limit",
		YesPriceCents: priceCents,
	}
	var result createOrderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/trade-api/v2/portfolio/orders")
	if err != nil {
		return Order{}, errors.Wrapf(err, "submit order %s %s %d@%d", action, ticker, quantity, priceCents)
	}
	if resp.IsError() {
		return Order{}, errors.Errorf("submit order %s %s: status %d: %s",
			action, ticker, resp.StatusCode(), resp.String())
	}
	venueLog.WithFields(logrus.Fields{
		"ticker":   ticker,
		"action":   action,
		"qty":      quantity,
		"price":    priceCents,
		"is_taker": isTaker,
		"order_id": result.Order.OrderID,
	}).Info("order submitted")
	return Order{
		OrderID:        result.Order.OrderID,
		Status:         result.Order.Status,
		FillCount:      result.Order.FillCount,
		RemainingCount: result.Order.RemainingCount,
	}, nil
}

// CancelOrder 撤单。kill switch 批量撤单时逐个调用。
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/trade-api/v2/portfolio/orders/" + orderID)
	if err != nil {
		return errors.Wrapf(err, "cancel order %s", orderID)
	}
	if resp.IsError() {
		return errors.Errorf("cancel order %s: status %d: %s", orderID, resp.StatusCode(), resp.String())
	}
	return nil
}

type balanceResponse struct {
	BalanceCents int64 `json:"balance"`
}

// Balance 查询可用余额（分）。
func (c *Client) Balance(ctx context.Context) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, errors.Wrap(err, "rate limiter")
	}
	var result balanceResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/trade-api/v2/portfolio/balance")
	if err != nil {
		return 0, errors.Wrap(err, "fetch balance")
	}
	if resp.IsError() {
		return 0, errors.Errorf("fetch balance: status %d: %s", resp.StatusCode(), resp.String())
	}
	return result.BalanceCents, nil
}
