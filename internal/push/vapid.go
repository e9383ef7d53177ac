package push

import (
	"fmt"
	"strings"

	"github.com/SherClockHolmes/webpush-go"

	"progsite-backend/config"
)

// Minimum lengths for base64url-encoded VAPID key material. A P-256 public
// key encodes to 87 characters and the private scalar to 43; anything much
// shorter is a truncated paste.
const (
	minPublicKeyLen  = 80
	minPrivateKeyLen = 40
)

// ConfigError reports missing or malformed VAPID configuration. It is
// surfaced to the admin with actionable text and never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("vapid configuration error: %s", e.Reason)
}

// VAPIDConfig carries the transport key pair and contact identity for web
// push delivery. It is constructed once at startup and handed to the
// Broadcaster rather than read from ambient environment state.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
	TTL        int
}

// NewVAPIDConfig builds a VAPIDConfig from the loaded file configuration.
func NewVAPIDConfig(cfg *config.PushConfig) VAPIDConfig {
	return VAPIDConfig{
		PublicKey:  cfg.PublicKey,
		PrivateKey: cfg.PrivateKey,
		Subject:    cfg.Subject,
		TTL:        cfg.TTL,
	}
}

// Validate checks the key pair and contact identity. The broadcaster calls
// this before touching the database so a misconfigured deployment fails fast.
func (c VAPIDConfig) Validate() error {
	if c.PublicKey == "" || c.PrivateKey == "" {
		return &ConfigError{Reason: "VAPID keys are not configured; generate a key pair and add it to the config file"}
	}
	if len(c.PublicKey) < minPublicKeyLen {
		return &ConfigError{Reason: fmt.Sprintf("VAPID public key looks truncated (%d chars)", len(c.PublicKey))}
	}
	if len(c.PrivateKey) < minPrivateKeyLen {
		return &ConfigError{Reason: fmt.Sprintf("VAPID private key looks truncated (%d chars)", len(c.PrivateKey))}
	}
	if !strings.Contains(c.Subject, "@") {
		return &ConfigError{Reason: fmt.Sprintf("VAPID subject %q must be a contact address", c.Subject)}
	}
	return nil
}

// Options returns the webpush options for a send with this configuration.
func (c VAPIDConfig) Options() *webpush.Options {
	return &webpush.Options{
		VAPIDPublicKey:  c.PublicKey,
		VAPIDPrivateKey: c.PrivateKey,
		Subscriber:      c.Subject,
		TTL:             c.TTL,
	}
}
