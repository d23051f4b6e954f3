package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/config"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	payOSSuccessCode = "00"
	// PayOS rejects longer descriptions.
	maxDescriptionLen = 25
)

// PayOSClient talks to the PayOS merchant API. Calls go through a circuit
// breaker so a failing provider fails fast instead of holding open
// database transactions.
type PayOSClient struct {
	cfg     config.PaymentConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*payOSData]
	log     *zap.Logger
}

func NewPayOSClient(cfg config.PaymentConfig, log *zap.Logger) *PayOSClient {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	breaker := gobreaker.NewCircuitBreaker[*payOSData](gobreaker.Settings{
		Name:    "payos",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Provider rejections are answers, not outages.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrGatewayRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("payment circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &PayOSClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		log:     log,
	}
}

type payOSCreateRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	CancelURL   string `json:"cancelUrl"`
	ReturnURL   string `json:"returnUrl"`
	Signature   string `json:"signature"`
}

type payOSData struct {
	OrderCode   int64  `json:"orderCode"`
	CheckoutURL string `json:"checkoutUrl"`
	QRCode      string `json:"qrCode"`
	Status      string `json:"status"`
}

type payOSResponse struct {
	Code string     `json:"code"`
	Desc string     `json:"desc"`
	Data *payOSData `json:"data"`
}

func (c *PayOSClient) CreatePaymentLink(ctx context.Context, req LinkRequest) (*Link, error) {
	if req.ReturnURL == "" {
		req.ReturnURL = c.cfg.ReturnURL
	}
	if req.CancelURL == "" {
		req.CancelURL = c.cfg.CancelURL
	}
	if len(req.Description) > maxDescriptionLen {
		req.Description = req.Description[:maxDescriptionLen]
	}

	body, err := json.Marshal(payOSCreateRequest{
		OrderCode:   req.OrderCode,
		Amount:      req.Amount,
		Description: req.Description,
		CancelURL:   req.CancelURL,
		ReturnURL:   req.ReturnURL,
		Signature:   Sign(c.cfg.ChecksumKey, req),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding payment request: %w", err)
	}

	data, err := c.call(ctx, http.MethodPost, "/v2/payment-requests", body)
	if err != nil {
		return nil, err
	}
	c.log.Debug("payment link created",
		zap.Int64("order_code", req.OrderCode),
		zap.Int64("amount", req.Amount),
	)
	return &Link{
		Status:      data.Status,
		CheckoutURL: data.CheckoutURL,
		QRCode:      data.QRCode,
	}, nil
}

// PaymentStatus reads the order back from PayOS. Callbacks arrive through
// the payer's browser, so this is the only trustworthy source.
func (c *PayOSClient) PaymentStatus(ctx context.Context, orderCode int64) (string, error) {
	data, err := c.call(ctx, http.MethodGet, "/v2/payment-requests/"+strconv.FormatInt(orderCode, 10), nil)
	if err != nil {
		return "", err
	}
	return data.Status, nil
}

func (c *PayOSClient) call(ctx context.Context, method, path string, body []byte) (*payOSData, error) {
	data, err := c.breaker.Execute(func() (*payOSData, error) {
		return c.do(ctx, method, path, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return data, err
}

func (c *PayOSClient) do(ctx context.Context, method, path string, body []byte) (*payOSData, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building payment request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("x-client-id", c.cfg.ClientID)
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var out payOSResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrGatewayUnavailable, err)
	}
	if out.Code != payOSSuccessCode || out.Data == nil {
		return nil, fmt.Errorf("%w: %s (code %s)", ErrGatewayRejected, out.Desc, out.Code)
	}

	c.log.Debug("payos call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Duration("latency", time.Since(start)),
	)
	return out.Data, nil
}

// Sign computes the PayOS request signature: HMAC-SHA256 over the
// alphabetically ordered fields, hex encoded.
func Sign(checksumKey string, req LinkRequest) string {
	data := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		req.Amount, req.CancelURL, req.Description, req.OrderCode, req.ReturnURL)
	mac := hmac.New(sha256.New, []byte(checksumKey))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
