package app_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Shopify/toxics/app"
	toxicerrors "github.com/Shopify/toxics/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal("Failed to write config file", err)
	}
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "toxics.yaml", `
endpoint: http://toxiproxy:8474
proxy: broker
request_timeout: 2s
cleanup_timeout: 30s
`)

	file, err := app.LoadFile(path)
	if err != nil {
		t.Fatal("Failed to load YAML config", err)
	}

	config := app.DefaultConfig()
	if err := file.Overlay(&config); err != nil {
		t.Fatal("Failed to overlay config", err)
	}

	expected := app.Config{
		Endpoint:       "http://toxiproxy:8474",
		Proxy:          "broker",
		RequestTimeout: 2 * time.Second,
		CleanupTimeout: 30 * time.Second,
	}
	if diff := cmp.Diff(expected, config); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadFile_JSONKeepsDefaults(t *testing.T) {
	path := writeFile(t, "toxics.json", `{"proxy": "broker", "metrics_addr": ":9090"}`)

	file, err := app.LoadFile(path)
	if err != nil {
		t.Fatal("Failed to load JSON config", err)
	}

	config := app.DefaultConfig()
	if err := file.Overlay(&config); err != nil {
		t.Fatal(err)
	}

	expected := app.DefaultConfig()
	expected.Proxy = "broker"
	expected.MetricsAddr = ":9090"
	if diff := cmp.Diff(expected, config); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	testCases := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.yaml")},
		{"unsupported format", writeFile(t, "toxics.toml", `proxy = "broker"`)},
		{"bad yaml", writeFile(t, "bad.yaml", "proxy: [unterminated")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := app.LoadFile(tc.path); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestOverlay_InvalidDuration(t *testing.T) {
	file := &app.FileConfig{RequestTimeout: "soon"}
	config := app.DefaultConfig()
	if err := file.Overlay(&config); err == nil {
		t.Error("Expected an invalid duration to be rejected")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := app.DefaultConfig().Validate(); err != nil {
		t.Fatal("Default config should be valid:", err)
	}

	broken := []func(*app.Config){
		func(c *app.Config) { c.Endpoint = "" },
		func(c *app.Config) { c.Proxy = "" },
		func(c *app.Config) { c.RequestTimeout = -time.Second },
		func(c *app.Config) { c.CleanupTimeout = -time.Second },
	}
	for i, breakIt := range broken {
		config := app.DefaultConfig()
		breakIt(&config)
		if err := config.Validate(); !errors.Is(err, toxicerrors.ErrUsage) {
			t.Errorf("case %d: got %v; expected ErrUsage", i, err)
		}
	}
}
