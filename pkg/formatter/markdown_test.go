package formatter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kataras/figma-svg-export/pkg/imager"
)

func TestToMarkdown(t *testing.T) {
	r := Report{
		RunID:       "0b6c",
		FileKey:     "AbCdE12345",
		FileName:    "Brand Kit",
		Location:    "/tmp/out",
		Format:      "svg",
		Discovered:  4,
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Export: &imager.ExportResult{
			Batches: 1,
			Assets: []imager.ExportedAsset{
				{NodeID: "1:1", Kind: "VECTOR", RelPath: "Page_1/Icons/Icon__VECTOR__1_1.svg", Bytes: 2048},
				{NodeID: "1:2", Kind: "COMPONENT", RelPath: "Logo__COMPONENT__1_2.svg", Bytes: 12},
			},
			Skipped: []string{"1:3"},
			Failures: []imager.NodeFailure{
				{NodeID: "1:4", Stage: imager.StageDownload, Err: errors.New("status 503 | gave up")},
			},
		},
	}

	md := ToMarkdown(r)
	for _, want := range []string{
		"# Figma Export Report - Brand Kit",
		"| Generated | 2026-01-02T03:04:05Z |",
		"| Format | SVG |",
		"| Written | 2 |",
		"### Page_1/Icons",
		"| Icon__VECTOR__1_1.svg | `1:1` | VECTOR | 2.0 KiB |",
		"### .",
		"| Logo__COMPONENT__1_2.svg | `1:2` | COMPONENT | 12 B |",
		"- `1:3`",
		"| `1:4` | download | status 503 \\| gave up |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report does not contain %q:\n%s", want, md)
		}
	}
}

func TestToMarkdownEmptyRun(t *testing.T) {
	md := ToMarkdown(Report{FileKey: "AbCdE12345"})
	if !strings.HasPrefix(md, "# Figma Export Report - AbCdE12345") {
		t.Errorf("title = %q", strings.SplitN(md, "\n", 2)[0])
	}
	for _, absent := range []string{"## Exported Files", "## Not Renderable", "## Failures"} {
		if strings.Contains(md, absent) {
			t.Errorf("empty report contains %q", absent)
		}
	}
}
