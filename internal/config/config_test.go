package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/gateway/wompi"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Env != "dev" || cfg.HTTPPort != "8080" || cfg.Events.Driver != "none" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Wompi.BaseURL != wompi.SandboxBaseURL {
		t.Fatalf("base url = %s", cfg.Wompi.BaseURL)
	}
	if !cfg.Wompi.AllowUnsignedWebhooks {
		t.Fatal("unsigned webhooks should be allowed outside prod by default")
	}
	if cfg.Checkout.AcceptanceToken != wompi.AcceptanceTokenPlaceholder {
		t.Fatalf("acceptance token = %q", cfg.Checkout.AcceptanceToken)
	}
	if cfg.Checkout.RedirectURL != "http://localhost:3000/payment/result" {
		t.Fatalf("redirect = %s", cfg.Checkout.RedirectURL)
	}
	if cfg.Reconcile.Interval != 5*time.Minute || cfg.Wompi.Timeout != 30*time.Second {
		t.Fatalf("durations not parsed: %+v %+v", cfg.Reconcile, cfg.Wompi.Timeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WOMPI_ENV", "production")
	t.Setenv("KAFKA_BROKER", "k1:9092, k2:9092")
	t.Setenv("EVENTS_DRIVER", "Kafka")
	t.Setenv("WOMPI_ALLOW_UNSIGNED_WEBHOOKS", "false")
	t.Setenv("RECONCILE_INTERVAL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Wompi.BaseURL != wompi.ProductionBaseURL {
		t.Fatalf("base url = %s", cfg.Wompi.BaseURL)
	}
	if len(cfg.Events.KafkaBrokers) != 2 || cfg.Events.KafkaBrokers[1] != "k2:9092" || cfg.Events.Driver != "kafka" {
		t.Fatalf("events = %+v", cfg.Events)
	}
	if cfg.Wompi.AllowUnsignedWebhooks {
		t.Fatal("explicit false ignored")
	}
	if cfg.Reconcile.Interval != 90*time.Second {
		t.Fatalf("interval = %s", cfg.Reconcile.Interval)
	}
}

func TestLoadRejectsUnknownEventsDriver(t *testing.T) {
	t.Setenv("EVENTS_DRIVER", "nats")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadProdRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	if _, err := Load(); err == nil {
		t.Fatal("expected missing keys to fail in prod")
	}

	t.Setenv("WOMPI_PUBLIC_KEY", "pub_prod_x")
	t.Setenv("WOMPI_PRIVATE_KEY", "prv_prod_x")
	t.Setenv("JWT_ACCESS_SECRET", "a-real-secret")
	t.Setenv("JWT_REFRESH_SECRET", "another-real-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Wompi.AllowUnsignedWebhooks {
		t.Fatal("prod must fail closed on unsigned webhooks")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hatsu.yaml")
	if err := os.WriteFile(path, []byte("HTTP_PORT: \"9090\"\nWOMPI_PUBLIC_KEY: pub_test_file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPPort != "9090" || cfg.Wompi.PublicKey != "pub_test_file" {
		t.Fatalf("file values not applied: port=%s pub=%s", cfg.HTTPPort, cfg.Wompi.PublicKey)
	}
}
