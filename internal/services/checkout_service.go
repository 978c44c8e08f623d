package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/cache"
	"github.com/JulianaCelis/hatsusound-backend/internal/gateway"
	"github.com/JulianaCelis/hatsusound-backend/internal/metrics"
	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	repo "github.com/JulianaCelis/hatsusound-backend/internal/repository"
)

const (
	PaymentTypeDirect = "direct"
	PaymentTypeIntent = "intent"

	defaultCheckoutExpiry = 24 * time.Hour
	defaultGatewayTimeout = 30 * time.Second
)

type CheckoutRequest struct {
	Amount             int64          `json:"amount"`
	Currency           string         `json:"currency"`
	CustomerEmail      string         `json:"customerEmail"`
	CustomerName       string         `json:"customerName,omitempty"`
	CustomerPhone      string         `json:"customerPhone,omitempty"`
	Description        string         `json:"description,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	Reference          string         `json:"reference,omitempty"`
	ProductID          string         `json:"productId"`
	ProductName        string         `json:"productName"`
	ProductCategory    string         `json:"productCategory"`
	ProductArtist      string         `json:"productArtist,omitempty"`
	ProductGenre       string         `json:"productGenre,omitempty"`
	ProductFormat      string         `json:"productFormat,omitempty"`
	PaymentMethodToken string         `json:"paymentMethodToken,omitempty"`

	// IdempotencyKey comes from the Idempotency-Key header.
	IdempotencyKey string `json:"-"`
}

func (r CheckoutRequest) paymentType() string {
	if r.PaymentMethodToken != "" {
		return PaymentTypeDirect
	}
	return PaymentTypeIntent
}

type CheckoutResponse struct {
	Success            bool               `json:"success"`
	Transaction        models.Transaction `json:"transaction"`
	CheckoutURL        string             `json:"checkoutUrl,omitempty"`
	WompiTransactionID string             `json:"wompiTransactionId"`
	Amount             int64              `json:"amount"`
	Currency           models.Currency    `json:"currency"`
	Reference          string             `json:"reference"`
	PaymentType        string             `json:"paymentType"`

	// Replayed is set when an Idempotency-Key matched an earlier checkout.
	Replayed bool `json:"-"`
}

type CheckoutConfig struct {
	RedirectURL     string
	AcceptanceToken string
	GatewayTimeout  time.Duration
	Expiry          time.Duration
}

type CheckoutService struct {
	store repo.Transactions
	gw    gateway.Gateway
	idem  cache.IdempotencyStore
	cfg   CheckoutConfig
	log   *slog.Logger
	now   func() time.Time
}

// NewCheckoutService wires the orchestrator. idem may be nil, in which case
// Idempotency-Key headers are ignored.
func NewCheckoutService(store repo.Transactions, gw gateway.Gateway, idem cache.IdempotencyStore, cfg CheckoutConfig, log *slog.Logger) *CheckoutService {
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = defaultGatewayTimeout
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = defaultCheckoutExpiry
	}
	if log == nil {
		log = slog.Default()
	}
	return &CheckoutService{store: store, gw: gw, idem: idem, cfg: cfg, log: log, now: time.Now}
}

// CreateCheckout never returns a raw error: failures are always a
// *CheckoutError with a code and a customer-facing message.
func (s *CheckoutService) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	resp, err := s.createCheckout(ctx, req)
	if err != nil {
		ce := classifyCheckoutError(err)
		s.log.Warn("checkout failed", "code", ce.Code, "reference", req.Reference, "product_id", req.ProductID, "err", err)
		metrics.CheckoutErrors.WithLabelValues(ce.Code).Inc()
		metrics.CheckoutsTotal.WithLabelValues(req.paymentType(), "failure").Inc()
		return nil, ce
	}
	result := "success"
	if resp.Replayed {
		result = "replay"
	}
	metrics.CheckoutsTotal.WithLabelValues(resp.PaymentType, result).Inc()
	return resp, nil
}

func (s *CheckoutService) createCheckout(ctx context.Context, req CheckoutRequest) (_ *CheckoutResponse, err error) {
	if err := ValidateCheckout(req); err != nil {
		return nil, err
	}

	now := s.now()
	reference := req.Reference
	if reference == "" {
		reference = GenerateReference(req.ProductID, now)
	}

	if req.IdempotencyKey != "" && s.idem != nil {
		existing, claimed, cerr := s.idem.Claim(ctx, req.IdempotencyKey, reference)
		switch {
		case cerr != nil:
			s.log.Warn("idempotency store unavailable, continuing without it", "err", cerr)
		case !claimed:
			return s.replay(ctx, existing)
		default:
			defer func() {
				if err != nil {
					if rerr := s.idem.Release(context.WithoutCancel(ctx), req.IdempotencyKey); rerr != nil {
						s.log.Warn("release idempotency key", "err", rerr)
					}
				}
			}()
		}
	}

	description := req.Description
	if description == "" {
		description = GenerateDescription(req.ProductCategory, req.ProductName, req.ProductArtist, req.ProductFormat)
	}

	tx, err := s.store.Create(ctx, models.Transaction{
		Reference:     reference,
		Amount:        req.Amount,
		Currency:      models.Currency(req.Currency),
		Status:        models.TxnPending,
		Type:          models.TxnPayment,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  optional(req.CustomerName),
		CustomerPhone: optional(req.CustomerPhone),
		Description:   description,
		Metadata:      checkoutMetadata(req, now),
	})
	if err != nil {
		return nil, err
	}

	gwReq := gateway.NewTransactionRequest(gateway.RequestInput{
		AmountInCents:      tx.Amount,
		Currency:           string(tx.Currency),
		CustomerEmail:      tx.CustomerEmail,
		CustomerName:       req.CustomerName,
		CustomerPhone:      req.CustomerPhone,
		Reference:          reference,
		PaymentMethodToken: req.PaymentMethodToken,
		AcceptanceToken:    s.cfg.AcceptanceToken,
		RedirectURL:        s.cfg.RedirectURL,
		ExpiresAt:          now.Add(s.cfg.Expiry),
	})

	// The gateway call outlives a disconnected client; only the timeout bounds it.
	gwCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.GatewayTimeout)
	defer cancel()
	remote, err := s.gw.CreateTransaction(gwCtx, gwReq)
	if err != nil {
		s.recordGatewayFailure(ctx, tx.ID, err)
		return nil, err
	}

	if !IsKnownStatus(remote.Status) {
		s.log.Warn("unknown gateway status, treating as PENDING", "status", remote.Status, "reference", reference)
	}
	status := MapStatus(remote.Status)
	patch := models.TransactionPatch{
		Status:                &status,
		ExternalTransactionID: &remote.ID,
		Metadata: map[string]any{
			"wompiStatus":        remote.Status,
			"wompiCreatedAt":     remote.CreatedAt,
			"wompiUpdatedAt":     remote.UpdatedAt,
			"wompiStatusMessage": remote.StatusMessage,
		},
	}
	if status.IsTerminal() {
		processed := s.now()
		patch.ProcessedAt = &processed
	}
	tx, err = s.store.Update(ctx, tx.ID, patch)
	if err != nil {
		s.log.Error("gateway transaction created but local update failed", "reference", reference, "wompi_id", remote.ID, "err", err)
		return nil, err
	}

	s.log.Info("checkout created", "reference", reference, "wompi_id", remote.ID, "status", status, "payment_type", gwReq.Flow)
	return s.response(tx, string(gwReq.Flow)), nil
}

// recordGatewayFailure leaves the row PENDING with an error message. Failing
// to write it does not change the checkout outcome.
func (s *CheckoutService) recordGatewayFailure(ctx context.Context, id string, cause error) {
	msg := cause.Error()
	if _, err := s.store.Update(context.WithoutCancel(ctx), id, models.TransactionPatch{ErrorMessage: &msg}); err != nil {
		s.log.Warn("could not record gateway failure", "transaction_id", id, "err", err)
	}
}

func (s *CheckoutService) replay(ctx context.Context, reference string) (*CheckoutResponse, error) {
	tx, err := s.store.FindByReference(ctx, reference)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, newCheckoutError(CodeRequestInProgress, err)
	}
	if err != nil {
		return nil, err
	}
	// The first request has stored its row but the gateway has not answered
	// yet; there is nothing for the client to pay with.
	if tx.ExternalTransactionID == nil {
		return nil, newCheckoutError(CodeRequestInProgress, nil)
	}
	paymentType, _ := tx.Metadata["paymentType"].(string)
	if paymentType == "" {
		paymentType = PaymentTypeIntent
	}
	resp := s.response(tx, paymentType)
	resp.Replayed = true
	return resp, nil
}

func (s *CheckoutService) response(tx models.Transaction, paymentType string) *CheckoutResponse {
	resp := &CheckoutResponse{
		Success:     true,
		Transaction: tx,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Reference:   tx.Reference,
		PaymentType: paymentType,
	}
	if tx.ExternalTransactionID != nil {
		resp.WompiTransactionID = *tx.ExternalTransactionID
		if paymentType == PaymentTypeIntent {
			resp.CheckoutURL = s.gw.CheckoutURL(resp.WompiTransactionID)
		}
	}
	return resp
}

func checkoutMetadata(req CheckoutRequest, now time.Time) map[string]any {
	meta := make(map[string]any, len(req.Metadata)+9)
	for k, v := range req.Metadata {
		meta[k] = v
	}
	meta["productId"] = req.ProductID
	meta["productName"] = req.ProductName
	meta["productCategory"] = req.ProductCategory
	for k, v := range map[string]string{
		"productArtist": req.ProductArtist,
		"productGenre":  req.ProductGenre,
		"productFormat": req.ProductFormat,
	} {
		if v != "" {
			meta[k] = v
		}
	}
	meta["paymentType"] = req.paymentType()
	meta["createdAt"] = now.UTC().Format(time.RFC3339)
	return meta
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
