package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	toxiproxy "github.com/Shopify/toxics/client"
	toxicerrors "github.com/Shopify/toxics/pkg/errors"
	"github.com/Shopify/toxics/testhelper"
)

func runCLI(t *testing.T, args ...string) (string, int) {
	t.Helper()
	logOutput = io.Discard
	t.Cleanup(func() { logOutput = nil })

	var stdout, stderr bytes.Buffer
	err := newCLI(&stdout, &stderr).Run(append([]string{"toxics"}, args...))
	if err != nil {
		return stdout.String(), exitCode(err)
	}
	return stdout.String(), 0
}

func unsetenv(t *testing.T, keys ...string) {
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func AssertCalls(t *testing.T, cp *testhelper.ControlPlane, expected ...string) {
	t.Helper()
	if diff := cmp.Diff(expected, cp.Calls(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("unexpected control plane calls (-want +got):\n%s", diff)
	}
}

func TestApply(t *testing.T) {
	cp := testhelper.NewControlPlane(t, "bridge")

	out, code := runCLI(t, "--host", cp.URL, "--proxy", "bridge", "apply", "latency")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if expected := "Applied scenario 'latency' on proxy 'bridge'\n"; out != expected {
		t.Errorf("got output %q; expected %q", out, expected)
	}
	AssertCalls(t, cp,
		"DELETE /proxies/bridge/toxics/latency-up",
		"POST /proxies/bridge/toxics",
	)
	if cp.Toxic("bridge", "latency-up") == nil {
		t.Error("latency-up was not created")
	}
}

func TestRemove_Down(t *testing.T) {
	cp := testhelper.NewControlPlane(t, "bridge")
	cp.SetEnabled("bridge", false)

	out, code := runCLI(t, "--host", cp.URL, "--proxy", "bridge", "remove", "down")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if expected := "Removed scenario 'down' on proxy 'bridge'\n"; out != expected {
		t.Errorf("got output %q; expected %q", out, expected)
	}
	AssertCalls(t, cp, "POST /proxies/bridge")
	if !cp.Enabled("bridge") {
		t.Error("proxy was not re-enabled")
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"explode"}},
		{"apply without scenario", []string{"apply"}},
		{"apply unknown scenario", []string{"apply", "meteor"}},
		{"remove unknown scenario", []string{"remove", "meteor"}},
		{"temporary without duration", []string{"temporary", "latency"}},
		{"temporary non-numeric duration", []string{"temporary", "latency", "abc"}},
		{"temporary negative duration", []string{"temporary", "latency", "-5"}},
		{"temporary zero duration", []string{"temporary", "latency", "0"}},
		{"temporary unknown scenario", []string{"temporary", "meteor", "10"}},
		{"unknown flag", []string{"--bogus", "apply", "latency"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := testhelper.NewControlPlane(t, "bridge")
			args := append([]string{"--host", cp.URL, "--proxy", "bridge"}, tt.args...)

			_, code := runCLI(t, args...)
			if code != toxicerrors.ExitUsage {
				t.Errorf("expected exit %d, got %d", toxicerrors.ExitUsage, code)
			}
			if calls := cp.Calls(); len(calls) != 0 {
				t.Errorf("expected no control plane requests, got %v", calls)
			}
		})
	}
}

func TestUpstreamFailure(t *testing.T) {
	_, code := runCLI(t, "--host", "http://127.0.0.1:1", "--timeout", "1s", "apply", "latency")
	if code != toxicerrors.ExitUpstream {
		t.Errorf("expected exit %d, got %d", toxicerrors.ExitUpstream, code)
	}
}

func TestMissingProxy(t *testing.T) {
	cp := testhelper.NewControlPlane(t, "bridge")

	_, code := runCLI(t, "--host", cp.URL, "--proxy", "ghost", "apply", "latency")
	if code != toxicerrors.ExitUpstream {
		t.Errorf("expected exit %d, got %d", toxicerrors.ExitUpstream, code)
	}
}

func TestListProxies(t *testing.T) {
	cp := testhelper.NewControlPlane(t, "bridge")

	out, code := runCLI(t, "--host", cp.URL, "list-proxies")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if expected := "bridge\t127.0.0.1:0\t127.0.0.1:1883\tenabled\t0\n"; out != expected {
		t.Errorf("got output %q; expected %q", out, expected)
	}
}

func TestListToxics(t *testing.T) {
	cp := testhelper.NewControlPlane(t, "bridge")
	cp.PutToxic("bridge", toxiproxy.Toxic{
		Name:       "latency-up",
		Type:       "latency",
		Stream:     "upstream",
		Toxicity:   1,
		Attributes: toxiproxy.Attributes{"latency": 3000, "jitter": 1000},
	})

	out, code := runCLI(t, "--host", cp.URL, "--proxy", "bridge", "list-toxics")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	expected := "latency-up\ttype=latency\tstream=upstream\ttoxicity=1.00\tattributes=[\tjitter=1000\tlatency=3000\t]\n"
	if out != expected {
		t.Errorf("got output %q; expected %q", out, expected)
	}
}

func TestStatus(t *testing.T) {
	cp := testhelper.NewControlPlane(t, "bridge")

	out, code := runCLI(t, "--host", cp.URL, "--proxy", "bridge", "status")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"version 2.9.0", "bridge enabled, 0 toxics"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	out, code = runCLI(t, "--host", cp.URL, "--proxy", "ghost", "status")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "ghost not found") {
		t.Errorf("expected missing proxy in output:\n%s", out)
	}
}

func TestScenarios(t *testing.T) {
	out, code := runCLI(t, "scenarios")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{
		"latency\tlatency-up\tupstream\tjitter=1000,latency=3000\t",
		"bandwidth\tbandwidth-down\tdownstream\trate=1\t",
		"down\tproxy-state\t",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestConfigPrecedence(t *testing.T) {
	unsetenv(t, "TOXIPROXY_URL", "TOXIPROXY_PROXY", "TOXICS_CONFIG")
	cp := testhelper.NewControlPlane(t, "bridge", "other")

	path := filepath.Join(t.TempDir(), "toxics.yaml")
	content := "endpoint: " + cp.URL + "\nproxy: other\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal("Failed to write config file", err)
	}

	tests := []struct {
		name     string
		env      string
		args     []string
		expected string
	}{
		{"file", "", nil, "POST /proxies/other"},
		{"env over file", "bridge", nil, "POST /proxies/bridge"},
		{"flag over env", "other", []string{"--proxy", "bridge"}, "POST /proxies/bridge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp.Reset()
			if tt.env != "" {
				t.Setenv("TOXIPROXY_PROXY", tt.env)
			}
			args := append([]string{"--config", path}, tt.args...)
			args = append(args, "apply", "down")

			if _, code := runCLI(t, args...); code != 0 {
				t.Fatalf("expected exit 0, got %d", code)
			}
			AssertCalls(t, cp, tt.expected)
		})
	}
}

func TestConfigFileMissing(t *testing.T) {
	_, code := runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "list-proxies")
	if code != toxicerrors.ExitUsage {
		t.Errorf("expected exit %d, got %d", toxicerrors.ExitUsage, code)
	}
}
