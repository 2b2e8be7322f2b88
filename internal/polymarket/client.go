package polymarket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/betbot/polysport/internal/domain"
)

// Client is a thin REST client for the order venue. It implements
// ports.OrderPlacer; the execution engine owns retry policy for placement,
// so the resty-level retries here cover transient transport errors only.
type Client struct {
	client *resty.Client
}

func NewClient(host string) *Client {
	host = strings.TrimRight(host, "/")

	// resty 会自动从环境变量读取代理配置（HTTP_PROXY, HTTPS_PROXY）
	client := resty.New().
		SetBaseURL(host).
		SetTimeout(60 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			// 429 限流时遵循 Retry-After 头
			if resp.StatusCode() == http.StatusTooManyRequests {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return seconds, nil
					}
				}
				return 10 * time.Second, nil
			}
			return 0, nil
		})

	return &Client{client: client}
}

type orderRequest struct {
	OrderID   string  `json:"order_id"`
	MarketID  string  `json:"market_id"`
	OutcomeID string  `json:"outcome_id"`
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
}

type orderResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// PlaceOrder submits one order to the venue.
func (c *Client) PlaceOrder(ctx context.Context, order *domain.ExecutionOrder) error {
	req := orderRequest{
		OrderID:   order.OrderID,
		MarketID:  order.MarketID,
		OutcomeID: order.OutcomeID,
		Side:      string(order.Side),
		Price:     order.Price,
		Size:      order.Size,
	}
	var out orderResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		Post("/orders")
	if err != nil {
		return errors.Wrap(err, "place order request")
	}
	if resp.IsError() {
		return errors.Errorf("place order: http %d: %s", resp.StatusCode(), resp.String())
	}
	if !out.Success {
		return errors.Errorf("place order rejected by venue: %s", out.Error)
	}
	return nil
}

// CancelOrder cancels a previously placed order at the venue.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete("/orders/" + orderID)
	if err != nil {
		return errors.Wrap(err, "cancel order request")
	}
	if resp.IsError() {
		return errors.Errorf("cancel order: http %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// Health probes the venue endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return errors.Wrap(err, "health request")
	}
	if resp.IsError() {
		return errors.Errorf("venue unhealthy: http %d", resp.StatusCode())
	}
	return nil
}
