package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSetupDefaultsWithoutFile(t *testing.T) {
	cfg, err := Setup(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if cfg.ServerPort != ":8080" || cfg.AuthorityTransport != TransportHTTP {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AuthorityTimeout != 5*time.Second || cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("durations: %v %v", cfg.AuthorityTimeout, cfg.SessionTTL)
	}
}

func TestSetupFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "AUTHORITY_URL=http://rules:9000\nAUTHORITY_TIMEOUT=750ms\nLOCAL_CORS=true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AUTHORITY_TRANSPORT", "grpc")

	cfg, err := Setup(path)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if cfg.AuthorityUrl != "http://rules:9000" {
		t.Errorf("AuthorityUrl = %q", cfg.AuthorityUrl)
	}
	if cfg.AuthorityTimeout != 750*time.Millisecond {
		t.Errorf("AuthorityTimeout = %v", cfg.AuthorityTimeout)
	}
	if !cfg.IsLocalCors {
		t.Errorf("LOCAL_CORS not applied")
	}
	if cfg.AuthorityTransport != TransportGRPC {
		t.Errorf("env override ignored: %q", cfg.AuthorityTransport)
	}
}

func TestSetupRejectsUnknownTransport(t *testing.T) {
	t.Setenv("AUTHORITY_TRANSPORT", "carrier-pigeon")
	if _, err := Setup(""); err == nil {
		t.Fatalf("expected error for unknown transport")
	}
}
