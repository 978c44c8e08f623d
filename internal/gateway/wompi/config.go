package wompi

import (
	"strings"
	"time"
)

const (
	SandboxBaseURL    = "https://sandbox.wompi.co/v1"
	ProductionBaseURL = "https://production.wompi.co/v1"
	DefaultCheckout   = "https://checkout.wompi.co"

	// AcceptanceTokenPlaceholder asks the client to resolve the merchant's
	// current acceptance token before creating a transaction.
	AcceptanceTokenPlaceholder = "AUTO"
)

type Config struct {
	Environment     string
	BaseURL         string
	CheckoutBaseURL string
	PublicKey       string
	PrivateKey      string
	IntegritySecret string
	EventsSecret    string
	Timeout         time.Duration

	// AllowUnsignedWebhooks skips signature checks when no secret is set.
	AllowUnsignedWebhooks bool
}

// BaseURLFor resolves environment aliases to an API base URL.
func BaseURLFor(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "live":
		return ProductionBaseURL
	default:
		return SandboxBaseURL
	}
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = BaseURLFor(c.Environment)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.CheckoutBaseURL == "" {
		c.CheckoutBaseURL = DefaultCheckout
	}
	c.CheckoutBaseURL = strings.TrimRight(c.CheckoutBaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// webhookSecret prefers the dedicated events secret.
func (c Config) webhookSecret() string {
	if c.EventsSecret != "" {
		return c.EventsSecret
	}
	return c.IntegritySecret
}
