package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("AMQP_URL", "")
		t.Setenv("SMTP_USERNAME", "")
		t.Setenv("SMTP_PASSWORD", "")
		t.Setenv("JWT_EXPIRES_IN", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("expected port 8080, got %s", cfg.Port)
		}
		if cfg.JWTExpirationDur != 24*time.Hour {
			t.Errorf("expected 24h expiration, got %s", cfg.JWTExpirationDur)
		}
		if cfg.AMQPEnabled() {
			t.Error("expected AMQP to be disabled without AMQP_URL")
		}
		if cfg.EmailEnabled() {
			t.Error("expected e-mail to be disabled without SMTP credentials")
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("SMTP_PORT", "2525")
		t.Setenv("SMTP_USERNAME", "alerts@example.com")
		t.Setenv("SMTP_PASSWORD", "secret")
		t.Setenv("SMTP_FROM", "")
		t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "9090" {
			t.Errorf("expected port 9090, got %s", cfg.Port)
		}
		if cfg.SMTPPort != 2525 {
			t.Errorf("expected SMTP port 2525, got %d", cfg.SMTPPort)
		}
		if !cfg.EmailEnabled() {
			t.Error("expected e-mail to be enabled")
		}
		if cfg.SMTPFrom != "alerts@example.com" {
			t.Errorf("expected from to default to username, got %s", cfg.SMTPFrom)
		}
		if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
			t.Errorf("unexpected CORS origins: %v", cfg.CORSOrigins)
		}
	})

	t.Run("invalid_values_fall_back", func(t *testing.T) {
		t.Setenv("SMTP_PORT", "abc")
		t.Setenv("JWT_EXPIRES_IN", "soon")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.SMTPPort != 587 {
			t.Errorf("expected fallback port 587, got %d", cfg.SMTPPort)
		}
		if cfg.JWTExpirationDur != 24*time.Hour {
			t.Errorf("expected fallback 24h, got %s", cfg.JWTExpirationDur)
		}
	})
}
