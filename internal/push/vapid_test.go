package push

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVAPIDConfigValidate(t *testing.T) {
	valid := VAPIDConfig{
		PublicKey:  strings.Repeat("B", 87),
		PrivateKey: strings.Repeat("k", 43),
		Subject:    "mailto:webmaster@program.example.edu",
		TTL:        3600,
	}
	assert.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		mutate func(*VAPIDConfig)
	}{
		{"missing public key", func(c *VAPIDConfig) { c.PublicKey = "" }},
		{"missing private key", func(c *VAPIDConfig) { c.PrivateKey = "" }},
		{"truncated public key", func(c *VAPIDConfig) { c.PublicKey = "BNcRd" }},
		{"truncated private key", func(c *VAPIDConfig) { c.PrivateKey = "tooShort" }},
		{"subject without contact address", func(c *VAPIDConfig) { c.Subject = "https://program.example.edu" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.IsType(t, &ConfigError{}, err)
		})
	}
}
