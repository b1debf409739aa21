package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.APIPrefix != "v1" || !cfg.IsDevelopment() {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.Auth.TokenTTL != 168*time.Hour || cfg.Auth.JWTIssuer != "brewly" || cfg.Auth.HashCost != 10 {
		t.Fatalf("unexpected auth defaults: %+v", cfg.Auth)
	}
	if cfg.OTP.TTL != 10*time.Minute || cfg.OTP.Store != OTPStoreRedis || cfg.OTP.LockStripes != 64 {
		t.Fatalf("unexpected otp defaults: %+v", cfg.OTP)
	}
	if cfg.Mail.Host != "" || cfg.Mail.Port != 587 || cfg.Mail.From != "noreply@brewly.com" || cfg.Mail.Timeout != 15*time.Second {
		t.Fatalf("unexpected mail defaults: %+v", cfg.Mail)
	}
	if cfg.Mongo.Database != "brewly" || cfg.StoreTimeout != 5*time.Second {
		t.Fatalf("unexpected store defaults: %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":     "s3cret",
		"ENV":            "production",
		"OTP_STORE":      "memory",
		"OTP_TTL":        "2m",
		"MAIL_HOST":      "smtp.example.com",
		"MAIL_SECURE":    "true",
		"MAIL_PORT":      "465",
		"REDIS_PASSWORD": "pw",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IsDevelopment() || cfg.OTP.Store != OTPStoreMemory || cfg.OTP.TTL != 2*time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !cfg.Mail.Secure || cfg.Mail.Port != 465 || cfg.Redis.Password != "pw" {
		t.Fatalf("overrides not applied: %+v %+v", cfg.Mail, cfg.Redis)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET is required"},
		{"zero otp ttl", map[string]string{"JWT_SECRET": "x", "OTP_TTL": "0s"}, "OTP_TTL must be positive"},
		{"negative token ttl", map[string]string{"JWT_SECRET": "x", "TOKEN_TTL": "-1h"}, "TOKEN_TTL must be positive"},
		{"unknown store", map[string]string{"JWT_SECRET": "x", "OTP_STORE": "memcached"}, "OTP_STORE must be"},
		{"bad duration", map[string]string{"JWT_SECRET": "x", "OTP_TTL": "soon"}, "failed to load configuration"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(tc.env))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}
