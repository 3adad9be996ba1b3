package app_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Shopify/toxics/app"
	"github.com/Shopify/toxics/testhelper"
)

func NewTestApp(t *testing.T, config app.Config) (*app.App, *bytes.Buffer) {
	t.Helper()
	logs := new(bytes.Buffer)
	config.LogOutput = logs
	a, err := app.NewApp(config)
	if err != nil {
		t.Fatal("Failed to create app", err)
	}
	return a, logs
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	config := app.DefaultConfig()
	config.Proxy = ""
	if _, err := app.NewApp(config); err == nil {
		t.Error("Expected an invalid config to be rejected")
	}
}

func TestNewApp_LogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	a, _ := NewTestApp(t, app.DefaultConfig())

	if a.Logger.GetLevel() != zerolog.WarnLevel {
		t.Errorf("got level %s; expected warn", a.Logger.GetLevel())
	}
}

func TestNewApp_UnknownLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	a, logs := NewTestApp(t, app.DefaultConfig())

	if a.Logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("got level %s; expected info", a.Logger.GetLevel())
	}
	if !strings.Contains(logs.String(), `unknown LOG_LEVEL value: \"loud\"`) {
		t.Errorf("expected a warning about the level, got %s", logs.String())
	}
}

func TestApp_ControllerAgainstControlPlane(t *testing.T) {
	cp := testhelper.NewControlPlane(t, "broker")
	config := app.DefaultConfig()
	config.Endpoint = cp.URL
	config.Proxy = "broker"
	a, logs := NewTestApp(t, config)

	c := a.NewController(a.NewClient("toxics/test"))
	if err := c.Apply(context.Background(), "timeout"); err != nil {
		t.Fatal("Failed to apply through the app wiring", err)
	}
	if cp.Toxic("broker", "timeout-up") == nil {
		t.Error("Expected the timeout toxic on the configured proxy")
	}
	if !strings.Contains(logs.String(), "Applied toxic") {
		t.Errorf("expected the apply to be logged, got %s", logs.String())
	}
}

func TestApp_ServeMetrics(t *testing.T) {
	config := app.DefaultConfig()
	config.MetricsAddr = "127.0.0.1:0"
	a, _ := NewTestApp(t, config)

	a.Metrics.ScenarioMetrics.TransitionsTotal.WithLabelValues("latency", "enabled").Inc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, err := a.ServeMetrics(ctx, config.MetricsAddr)
	if err != nil {
		t.Fatal("Failed to serve metrics", err)
	}

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	if err != nil {
		t.Fatal("Failed to scrape metrics", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, expected := range []string{
		`toxics_scenario_transitions_total{scenario="latency",state="enabled"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), expected) {
			t.Errorf("expected scrape to contain %q", expected)
		}
	}
}
