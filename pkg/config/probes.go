package config

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// ProbesConfig places the HTTP liveness and readiness endpoints.
type ProbesConfig struct {
	LivenessPath     string        `koanf:"livenesspath"`
	ReadinessPath    string        `koanf:"readinesspath"`
	ReadinessTimeout time.Duration `koanf:"readinesstimeout"`
}

const defaultLivenessPath = "/livez"
const defaultReadinessPath = "/readyz"
const defaultReadinessTimeout = 2 * time.Second

// String returns a string representation of the ProbesConfig.
func (c *ProbesConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Probes ---\n")
	b.WriteString(fmt.Sprintf("  livenesspath: %s\n", c.LivenessPath))
	b.WriteString(fmt.Sprintf("  readinesspath: %s\n", c.ReadinessPath))
	b.WriteString(fmt.Sprintf("  readinesstimeout: %s\n", c.ReadinessTimeout))
	return b.String()
}

func (c *ProbesConfig) Validate() error {
	if c.LivenessPath == "" {
		log.Println("Using default value for livenesspath")
		c.LivenessPath = defaultLivenessPath
	}
	if c.ReadinessPath == "" {
		log.Println("Using default value for readinesspath")
		c.ReadinessPath = defaultReadinessPath
	}
	if c.ReadinessTimeout <= 0 {
		log.Println("Using default value for readinesstimeout")
		c.ReadinessTimeout = defaultReadinessTimeout
	}
	if !strings.HasPrefix(c.LivenessPath, "/") || !strings.HasPrefix(c.ReadinessPath, "/") {
		return fmt.Errorf("probe paths must start with '/'")
	}
	return nil
}
