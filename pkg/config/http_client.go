package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// HTTPClientConfig describes an upstream reached over plain HTTP.
type HTTPClientConfig struct {
	URL        string        `koanf:"url"`
	Timeout    time.Duration `koanf:"timeout"`
	HealthPath string        `koanf:"healthpath"`
}

// String returns a string representation of the HTTP client configuration.
func (c *HTTPClientConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- HTTP Client ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.URL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  healthpath: %s\n", c.HealthPath))
	return b.String()
}

func (c *HTTPClientConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("upstream URL is not configured")
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream URL must be absolute: %q", c.URL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("upstream timeout is not configured")
	}
	return nil
}
