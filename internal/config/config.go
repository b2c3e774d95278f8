// Package config holds the storefront configuration.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/abgdnv/storefront/internal/commerce"
	"github.com/abgdnv/storefront/pkg/config"
	"github.com/abgdnv/storefront/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Session store kinds.
const (
	SessionStoreCookie   = "cookie"
	SessionStorePostgres = "postgres"
)

const minSecretLength = 32

type Config struct {
	HTTPServer config.HTTPConfig      `koanf:"server"`
	Log        config.LogConfig       `koanf:"log"`
	PProf      config.PProfConfig     `koanf:"pprof"`
	Telemetry  config.TelemetryConfig `koanf:"telemetry"`
	Probes     config.ProbesConfig    `koanf:"probes"`
	Shutdown   config.ShutdownConfig  `koanf:"shutdown"`
	Services   struct {
		Commerce struct {
			config.HTTPClientConfig `koanf:",squash"`
			CircuitBreaker          config.CircuitBreakerConfig `koanf:"circuitbreaker"`
		} `koanf:"commerce"`
	} `koanf:"services"`
	Relay    RelayConfig           `koanf:"relay"`
	Session  SessionConfig         `koanf:"session"`
	Database config.DatabaseConfig `koanf:"database"`
	Nats     config.NATSConfig     `koanf:"nats"`
	Checkout CheckoutConfig        `koanf:"checkout"`
}

// RelayConfig places the pass-through API under Prefix. Upstream defaults to
// the /api root of the commerce API.
type RelayConfig struct {
	Prefix   string `koanf:"prefix"`
	Upstream string `koanf:"upstream"`
}

// SessionConfig selects where the signed-in user is remembered.
type SessionConfig struct {
	Store      string        `koanf:"store"`
	CookieName string        `koanf:"cookiename"`
	Secret     string        `koanf:"secret"`
	MaxAge     time.Duration `koanf:"maxage"`
	Secure     bool          `koanf:"secure"`
}

// CheckoutConfig is the payment and shipping data sent with every order.
type CheckoutConfig struct {
	PaymentMethod string `koanf:"paymentmethod"`
	Name          string `koanf:"name"`
	PostalCode    string `koanf:"postalcode"`
	Address       string `koanf:"address"`
	Phone         string `koanf:"phone"`
}

// ShippingDetails converts the section into the order payload fields.
func (c CheckoutConfig) ShippingDetails() commerce.ShippingDetails {
	return commerce.ShippingDetails{
		PaymentMethod:      c.PaymentMethod,
		ShippingName:       c.Name,
		ShippingPostalCode: c.PostalCode,
		ShippingAddress:    c.Address,
		ShippingPhone:      c.Phone,
	}
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Probes.String())
	b.WriteString(c.Shutdown.String())

	b.WriteString("\n--- External Services ---\n")
	b.WriteString(fmt.Sprintf("  services.commerce.url: %s\n", c.Services.Commerce.URL))
	b.WriteString(fmt.Sprintf("  services.commerce.timeout: %s\n", c.Services.Commerce.Timeout))
	b.WriteString(fmt.Sprintf("  services.commerce.healthpath: %s\n", c.Services.Commerce.HealthPath))
	b.WriteString(c.Services.Commerce.CircuitBreaker.String())

	b.WriteString("\n--- Relay ---\n")
	b.WriteString(fmt.Sprintf("  relay.prefix: %s\n", c.Relay.Prefix))
	b.WriteString(fmt.Sprintf("  relay.upstream: %s\n", c.Relay.Upstream))

	b.WriteString("\n--- Session ---\n")
	b.WriteString(fmt.Sprintf("  session.store: %s\n", c.Session.Store))
	b.WriteString(fmt.Sprintf("  session.cookiename: %s\n", c.Session.CookieName))
	b.WriteString("  session.secret: ****\n")
	b.WriteString(fmt.Sprintf("  session.maxage: %s\n", c.Session.MaxAge))
	b.WriteString(fmt.Sprintf("  session.secure: %t\n", c.Session.Secure))
	if c.Session.Store == SessionStorePostgres {
		b.WriteString(c.Database.String())
	}
	b.WriteString(c.Nats.String())

	b.WriteString("\n--- Checkout ---\n")
	b.WriteString(fmt.Sprintf("  checkout.paymentmethod: %s\n", c.Checkout.PaymentMethod))

	return b.String()
}

// Validate checks if the configuration values are valid and fills in defaults.
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Probes.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Services.Commerce.Validate(); err != nil {
		return fmt.Errorf("services.commerce: %w", err)
	}
	if err := c.Services.Commerce.CircuitBreaker.Validate(); err != nil {
		return fmt.Errorf("services.commerce: %w", err)
	}
	if err := c.validateRelay(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.Nats.Validate(); err != nil {
		return err
	}
	if c.Checkout.PaymentMethod == "" {
		c.Checkout.PaymentMethod = "credit_card"
	}
	return nil
}

func (c *Config) validateRelay() error {
	if c.Relay.Prefix == "" {
		c.Relay.Prefix = "/api/proxy"
	}
	if !strings.HasPrefix(c.Relay.Prefix, "/") {
		return fmt.Errorf("relay prefix must start with '/': %q", c.Relay.Prefix)
	}
	c.Relay.Prefix = strings.TrimSuffix(c.Relay.Prefix, "/")
	if c.Relay.Upstream == "" {
		c.Relay.Upstream = strings.TrimSuffix(c.Services.Commerce.URL, "/") + "/api"
	}
	u, err := url.Parse(c.Relay.Upstream)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("relay upstream must be an absolute URL: %q", c.Relay.Upstream)
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.CookieName == "" {
		c.Session.CookieName = "storefront_session"
	}
	if c.Session.MaxAge < 0 {
		return fmt.Errorf("session maxage must not be negative: %v", c.Session.MaxAge)
	}
	switch c.Session.Store {
	case "", SessionStoreCookie:
		c.Session.Store = SessionStoreCookie
		if len(c.Session.Secret) < minSecretLength {
			return fmt.Errorf("session secret must be at least %d bytes", minSecretLength)
		}
	case SessionStorePostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown session store: %q", c.Session.Store)
	}
	return nil
}
