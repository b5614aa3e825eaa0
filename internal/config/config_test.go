package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"leadpilot/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default("biz-1")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Business.ID != "biz-1" {
		t.Fatalf("business id not threaded: %q", cfg.Business.ID)
	}
	if cfg.Decisions.ConfidenceThreshold != 0.75 || cfg.Status.ConfidenceThreshold != 0.75 {
		t.Fatalf("unexpected default thresholds: %+v", cfg)
	}
	if cfg.Decisions.FallbackReply == "" {
		t.Fatalf("default must carry a fallback reply")
	}
}

func TestFromYAMLRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"missing business", "oracle:\n  model: m\n  timeout_seconds: 5\n", "business.id"},
		{"bad threshold", strings.Replace(config.GenerateDefault("b"), "confidence_threshold: 0.75", "confidence_threshold: 7.5", 1), "confidence_threshold"},
		{"not yaml", "{{{", "invalid config yaml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.FromYAML([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("missing file should be nil,nil: %v %v", cfg, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "leadpilot.yml"), []byte(config.GenerateDefault("biz-2")), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = config.LoadOptional(dir)
	if err != nil || cfg == nil || cfg.Business.ID != "biz-2" {
		t.Fatalf("load failed: %+v %v", cfg, err)
	}
}
