package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/juulhao/payhook/internal/service"
)

const (
	// DefaultBaseURL - продовый API Mercado Pago
	DefaultBaseURL = "https://api.mercadopago.com"

	searchPageSize = 50
	maxSearchPages = 20
)

// ErrStatus возвращается на не-2xx ответ API
var ErrStatus = errors.New("mercado pago API error")

// Client - клиент Payment Query API (Mercado Pago /v1/payments).
// Реализует service.PaymentQuery. Токен и base URL передаются явно, глобального SDK нет.
type Client struct {
	logger      *zap.Logger
	baseURL     string
	accessToken string
	http        *http.Client
}

// NewClient создаёт клиент. httpClient == nil - http.Client с timeout.
func NewClient(logger *zap.Logger, baseURL, accessToken string, timeout time.Duration, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		logger:      logger,
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		http:        httpClient,
	}
}

// GetPayment - GET /v1/payments/{id}
func (c *Client) GetPayment(ctx context.Context, paymentID string) (service.PaymentDetails, error) {
	var p payment
	if err := c.get(ctx, "/v1/payments/"+url.PathEscape(paymentID), nil, &p); err != nil {
		return service.PaymentDetails{}, err
	}
	return p.toDetails(), nil
}

// SearchPayments - GET /v1/payments/search?external_reference=..., собирает все страницы
func (c *Client) SearchPayments(ctx context.Context, externalReference string) ([]service.PaymentDetails, error) {
	result := make([]service.PaymentDetails, 0)

	for page := 0; page < maxSearchPages; page++ {
		offset := page * searchPageSize
		q := url.Values{}
		q.Set("external_reference", externalReference)
		q.Set("sort", "date_created")
		q.Set("criteria", "desc")
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(searchPageSize))

		var resp searchResponse
		if err := c.get(ctx, "/v1/payments/search", q, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Results {
			result = append(result, p.toDetails())
		}

		if len(resp.Results) == 0 || offset+len(resp.Results) >= resp.Paging.Total {
			return result, nil
		}
	}

	c.logger.Warn("payment search truncated",
		zap.String("external_reference", externalReference),
		zap.Int("collected", len(result)),
	)
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// При не-2xx читаем тело для диагностики и не декодируем JSON
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%w: GET %s status %d: %s", ErrStatus, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("mercado pago request done",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}
