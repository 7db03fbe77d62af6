package webauth

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"complete", func(*Config) {}, true},
		{"missing secret", func(c *Config) { c.Secret = "" }, false},
		{"missing issuer", func(c *Config) { c.Issuer = "" }, false},
		{"rotation without previous secret", func(c *Config) { c.EnableKeyRotation = true }, false},
		{"rotation with previous secret", func(c *Config) {
			c.EnableKeyRotation = true
			c.PreviousSecret = "old-secret"
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.valid && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tc.valid && err == nil {
				t.Fatal("expected a configuration error")
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := testConfig().withDefaults()

	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("access ttl = %v", cfg.AccessTokenTTL)
	}
	if cfg.TemporaryTokenTTL != 15*time.Minute {
		t.Fatalf("temporary ttl = %v", cfg.TemporaryTokenTTL)
	}
	if cfg.RefreshTokenTTL != 30*24*time.Hour {
		t.Fatalf("refresh ttl = %v", cfg.RefreshTokenTTL)
	}
	if cfg.PasswordSecret != cfg.Secret {
		t.Fatal("password secret must default to the signing secret")
	}

	explicit := testConfig()
	explicit.AccessTokenTTL = 5 * time.Minute
	explicit.PasswordSecret = "separate"
	explicit = explicit.withDefaults()
	if explicit.AccessTokenTTL != 5*time.Minute || explicit.PasswordSecret != "separate" {
		t.Fatal("explicit values must survive defaulting")
	}
}

func TestConfigNewCodec(t *testing.T) {
	cfg := testConfig()
	codec, err := cfg.NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	if codec == nil {
		t.Fatal("expected a codec")
	}

	cfg.Secret = ""
	if _, err := cfg.NewCodec(); err == nil {
		t.Fatal("invalid config must not yield a codec")
	}
}
