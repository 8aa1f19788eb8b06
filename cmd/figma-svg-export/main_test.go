package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	figmasvgexport "github.com/kataras/figma-svg-export"
	"github.com/kataras/figma-svg-export/pkg/fetch"
	"github.com/kataras/figma-svg-export/pkg/imager"

	"github.com/spf13/cobra"
)

func envOf(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{figmasvgexport.ErrMissingToken, exitConfig},
		{fmt.Errorf("wrapped: %w", figmasvgexport.ErrEmptyScope), exitConfig},
		{figmasvgexport.ErrNoRoots, exitFatal},
		{errors.New("boom"), exitFatal},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := execute(context.Background(), []string{"version"}, &stdout, &stderr, envOf(nil)); code != exitOK {
		t.Fatalf("exit code = %d, stderr %q", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), version) {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestConfigErrorsExitWithTwo(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing token", []string{"FILEKEY123"}, "missing Figma access token"},
		{"missing file", []string{"--token", "x"}, "file key or URL is required"},
		{"zero batch size", []string{"FILEKEY123", "--token", "x", "--batch-size", "0"}, "batch size"},
		{"unknown flag", []string{"FILEKEY123", "--nope"}, "unknown flag"},
		{"bad mode", []string{"FILEKEY123", "--token", "x", "--mode", "some"}, "unknown export mode"},
		{"bad log format", []string{"FILEKEY123", "--token", "x", "--log-format", "xml"}, "unknown log format"},
		{"two positionals", []string{"a12345", "b12345"}, "at most one"},
		{"zero retries", []string{"FILEKEY123", "--token", "x", "--retries", "0"}, "max attempts must be at least 1"},
		{"negative timeout", []string{"FILEKEY123", "--token", "x", "--timeout=-1s"}, "timeout must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := execute(context.Background(), tt.args, &stdout, &stderr, envOf(nil))
			if code != exitConfig {
				t.Errorf("exit code = %d, want %d", code, exitConfig)
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.want)
			}
		})
	}
}

func parse(t *testing.T, args []string, env map[string]string) *settings {
	t.Helper()
	f := &cliFlags{}
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() = %v", err)
	}
	s, err := f.resolve(cmd, cmd.Flags().Args(), envOf(env))
	if err != nil {
		t.Fatalf("resolve() = %v", err)
	}
	return s
}

func TestTokenLookupOrder(t *testing.T) {
	both := map[string]string{"FIGMA_TOKEN": "primary", "FIGMA_ACCESS_TOKEN": "secondary"}

	if s := parse(t, []string{"KEY12345", "--token", "flag"}, both); s.options.AccessToken != "flag" {
		t.Errorf("token = %q, want flag", s.options.AccessToken)
	}
	if s := parse(t, []string{"KEY12345"}, both); s.options.AccessToken != "primary" {
		t.Errorf("token = %q, want primary", s.options.AccessToken)
	}
	if s := parse(t, []string{"KEY12345"}, map[string]string{"FIGMA_ACCESS_TOKEN": "secondary"}); s.options.AccessToken != "secondary" {
		t.Errorf("token = %q, want secondary", s.options.AccessToken)
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "export.yaml")
	err := os.WriteFile(cfgPath, []byte(`
file: CFGKEY123
mode: all
kinds: [vector]
batch_size: 150
batch_delay: 600ms
prefix: brand
output: s3://assets/icons
svg:
  outline_text: false
`), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	s := parse(t, []string{"--config", cfgPath, "--batch-size", "50", "--node-id", "1-2,3:4", "--node-id", "5-6"}, nil)
	o := s.options

	if o.FileRef != "CFGKEY123" || o.Mode != imager.ModeAll || o.Prefix != "brand" {
		t.Errorf("options = %+v", o)
	}
	if o.BatchSize != 50 || o.BatchDelay != 600*time.Millisecond {
		t.Errorf("batch = %d / %s", o.BatchSize, o.BatchDelay)
	}
	if !o.AllowedKinds["VECTOR"] || len(o.AllowedKinds) != 1 {
		t.Errorf("AllowedKinds = %v", o.AllowedKinds)
	}
	if o.SVG.OutlineText || !o.SVG.IncludeID {
		t.Errorf("SVG = %+v", o.SVG)
	}
	if strings.Join(o.NodeIDs, "|") != "1-2,3:4|5-6" {
		t.Errorf("NodeIDs = %v", o.NodeIDs)
	}
	if s.target.S3 == nil || s.target.S3.Bucket != "assets" || s.target.S3.Prefix != "icons" {
		t.Errorf("target = %+v", s.target)
	}
}

func TestDefaults(t *testing.T) {
	s := parse(t, []string{"https://www.figma.com/design/KEY12345/Name", "--all"}, map[string]string{"FIGMA_TOKEN": "t"})
	o := s.options
	if o.Mode != imager.ModeAll || o.BatchSize != imager.DefaultBatchSize || o.OutputDir != figmasvgexport.DefaultOutputDir || o.AllowedKinds != nil {
		t.Errorf("options = %+v", o)
	}
	if o.Retry == nil || *o.Retry != (fetch.Policy{MaxAttempts: 5, BaseDelay: 1.5, Timeout: 30 * time.Second}) {
		t.Errorf("Retry = %+v", o.Retry)
	}
	if !o.SVG.IncludeID || !o.SVG.OutlineText || o.SVG.SimplifyStroke || o.SVG.UseRelativeBounds {
		t.Errorf("SVG = %+v", o.SVG)
	}
}

func TestZeroRetrySettingsAreKept(t *testing.T) {
	s := parse(t, []string{"KEY12345", "--retries", "1", "--timeout", "0", "--retry-base", "0"}, map[string]string{"FIGMA_TOKEN": "t"})
	want := fetch.Policy{MaxAttempts: 1}
	if s.options.Retry == nil || *s.options.Retry != want {
		t.Errorf("Retry = %+v, want %+v", s.options.Retry, want)
	}
}

func TestExportEndToEnd(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/files/KEY12345":
			fmt.Fprint(w, `{"name":"Icons","document":{"id":"0:0","type":"DOCUMENT","children":[
				{"id":"0:1","name":"Page 1","type":"CANVAS","children":[
					{"id":"1:2","name":"Arrow / Left","type":"VECTOR"},
					{"id":"1:3","name":"Gone","type":"VECTOR"}]}]}}`)
		case "/v1/images/KEY12345":
			fmt.Fprintf(w, `{"err":null,"images":{"1:2":"%s/render/1_2.svg","1:3":null}}`, srvURL)
		case "/render/1_2.svg":
			fmt.Fprint(w, `<svg/>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	dir := t.TempDir()
	report := filepath.Join(dir, "report.md")
	out := filepath.Join(dir, "out")
	args := []string{"KEY12345", "--all", "-o", out, "--api-base-url", srv.URL + "/v1", "--report", report, "--log-format", "json", "-v"}

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr, envOf(map[string]string{"FIGMA_ACCESS_TOKEN": "secret"}))
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}

	if data, err := os.ReadFile(filepath.Join(out, "Page_1", "Arrow_-_Left__VECTOR__1_2.svg")); err != nil || string(data) != "<svg/>" {
		t.Errorf("exported file = %q, %v", data, err)
	}
	md, err := os.ReadFile(report)
	if err != nil || !strings.Contains(string(md), "- `1:3`") {
		t.Errorf("report = %q, %v", md, err)
	}
	if !strings.Contains(stderr.String(), `"run_id"`) {
		t.Errorf("JSON logs missing run_id: %s", stderr.String())
	}
	if !strings.Contains(stdout.String(), "Written: 1") || !strings.Contains(stdout.String(), "Not renderable: 1") {
		t.Errorf("summary = %s", stdout.String())
	}
}
