// Package wompi implements gateway.Gateway against the Wompi REST API.
package wompi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JulianaCelis/hatsusound-backend/internal/gateway"
)

const acceptanceTokenTTL = 30 * time.Minute

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger

	sf         singleflight.Group
	mu         sync.Mutex
	acceptance string
	fetchedAt  time.Time
	now        func() time.Time
}

var _ gateway.Gateway = (*Client)(nil)

func NewClient(cfg Config, log *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With("component", "wompi"),
		now:  time.Now,
	}
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type apiError struct {
	Error struct {
		Type     string          `json:"type"`
		Reason   string          `json:"reason"`
		Messages json.RawMessage `json:"messages"`
	} `json:"error"`
}

func (c *Client) CreateTransaction(ctx context.Context, req gateway.TransactionRequest) (*gateway.Transaction, error) {
	if req.AcceptanceToken == "" || req.AcceptanceToken == AcceptanceTokenPlaceholder {
		tok, err := c.AcceptanceToken(ctx)
		if err != nil {
			return nil, err
		}
		req.AcceptanceToken = tok
	}
	if req.Signature == "" && c.cfg.IntegritySecret != "" {
		req.Signature = IntegritySignature(req.Reference, req.AmountInCents, req.Currency, c.cfg.IntegritySecret)
	}

	var out envelope[gateway.Transaction]
	if err := c.do(ctx, http.MethodPost, "/transactions", c.cfg.PrivateKey, req, &out); err != nil {
		return nil, err
	}
	c.log.Info("transaction created", "id", out.Data.ID, "reference", req.Reference, "status", out.Data.Status, "flow", req.Flow)
	return &out.Data, nil
}

func (c *Client) GetTransaction(ctx context.Context, id string) (*gateway.Transaction, error) {
	var out envelope[gateway.Transaction]
	if err := c.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(id), c.cfg.PrivateKey, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) CreatePaymentMethodToken(ctx context.Context, card gateway.CardData) (string, error) {
	var out envelope[struct {
		ID string `json:"id"`
	}]
	if err := c.do(ctx, http.MethodPost, "/tokens/cards", c.cfg.PublicKey, card, &out); err != nil {
		return "", err
	}
	if out.Data.ID == "" {
		return "", &gateway.Error{Kind: gateway.KindUnknown, Message: "empty card token in response"}
	}
	return out.Data.ID, nil
}

func (c *Client) CheckoutURL(transactionID string) string {
	q := url.Values{}
	q.Set("public-key", c.cfg.PublicKey)
	q.Set("transaction-id", transactionID)
	return c.cfg.CheckoutBaseURL + "/p/?" + q.Encode()
}

// VerifySignature checks a webhook checksum. With no secret configured the
// check is skipped only if AllowUnsignedWebhooks is set.
func (c *Client) VerifySignature(payload []byte, checksum string) bool {
	secret := c.cfg.webhookSecret()
	if secret == "" {
		if c.cfg.AllowUnsignedWebhooks {
			c.log.Warn("webhook signature verification skipped: no secret configured")
			return true
		}
		c.log.Error("webhook rejected: no secret configured and unsigned webhooks are not allowed")
		return false
	}
	return gateway.Verify(secret, payload, checksum)
}

// AcceptanceToken returns the merchant's presigned acceptance token, cached
// for a while. Concurrent callers share one request.
func (c *Client) AcceptanceToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.acceptance != "" && c.now().Sub(c.fetchedAt) < acceptanceTokenTTL {
		tok := c.acceptance
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	v, err, _ := c.sf.Do("acceptance_token", func() (interface{}, error) {
		var out envelope[struct {
			PresignedAcceptance struct {
				AcceptanceToken string `json:"acceptance_token"`
			} `json:"presigned_acceptance"`
		}]
		if err := c.do(ctx, http.MethodGet, "/merchants/"+url.PathEscape(c.cfg.PublicKey), "", nil, &out); err != nil {
			return "", err
		}
		tok := out.Data.PresignedAcceptance.AcceptanceToken
		if tok == "" {
			return "", &gateway.Error{Kind: gateway.KindUnknown, Message: "merchant has no acceptance token"}
		}
		c.mu.Lock()
		c.acceptance, c.fetchedAt = tok, c.now()
		c.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// IntegritySignature is the checksum Wompi expects on transaction creation.
func IntegritySignature(reference string, amountInCents int64, currency, secret string) string {
	sum := sha256.Sum256([]byte(reference + strconv.FormatInt(amountInCents, 10) + currency + secret))
	return hex.EncodeToString(sum[:])
}

func (c *Client) do(ctx context.Context, method, path, key string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("wompi: marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("wompi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &gateway.Error{Kind: gateway.KindUnavailable, HTTPStatus: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := responseError(resp.StatusCode, raw)
		c.log.Warn("wompi request failed", "method", method, "path", path, "status", resp.StatusCode, "kind", gwErr.Kind, "reason", gwErr.Reason)
		return gwErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &gateway.Error{Kind: gateway.KindUnknown, HTTPStatus: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

func transportError(err error) error {
	// Timeouts, refused connections and cancellations all mean the gateway
	// could not be reached.
	kind := gateway.KindUnavailable
	if errors.Is(err, context.Canceled) {
		kind = gateway.KindUnknown
	}
	return &gateway.Error{Kind: kind, Message: "request failed", Err: err}
}

func responseError(status int, raw []byte) *gateway.Error {
	gwErr := &gateway.Error{Kind: gateway.KindForStatus(status), HTTPStatus: status}

	var body apiError
	if json.Unmarshal(raw, &body) == nil {
		gwErr.Message = body.Error.Type
		if body.Error.Reason != "" {
			gwErr.Message += ": " + body.Error.Reason
		}
		if gwErr.Kind == gateway.KindValidation {
			gwErr.Reason = validationReason(body.Error.Messages)
		}
	}
	return gwErr
}

// validationReason inspects the field paths of a 422 "messages" object.
func validationReason(messages json.RawMessage) gateway.Reason {
	if len(messages) == 0 {
		return gateway.ReasonNone
	}
	var tree any
	if json.Unmarshal(messages, &tree) != nil {
		return gateway.ReasonNone
	}
	var paths []string
	collectPaths("", tree, &paths)

	reason := gateway.ReasonNone
	for _, p := range paths {
		switch {
		case strings.Contains(p, "token"):
			return gateway.ReasonPaymentToken
		case strings.HasPrefix(p, "payment_method"):
			reason = gateway.ReasonPaymentMethod
		}
	}
	return reason
}

func collectPaths(prefix string, node any, out *[]string) {
	m, ok := node.(map[string]any)
	if !ok {
		if prefix != "" {
			*out = append(*out, prefix)
		}
		return
	}
	for k, v := range m {
		p := k
		if prefix != "" {
			p = prefix + "." + k
		}
		collectPaths(p, v, out)
	}
}
