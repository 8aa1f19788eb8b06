package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kataras/figma-svg-export/pkg/imager"
)

// Report is the input of ToMarkdown.
type Report struct {
	RunID       string
	FileKey     string
	FileName    string
	Location    string // output directory or s3:// URI
	Format      string
	Discovered  int
	GeneratedAt time.Time
	Export      *imager.ExportResult
}

// ToMarkdown renders an export run as a markdown document: a summary table,
// the written files grouped by directory, and the skipped and failed nodes.
func ToMarkdown(r Report) string {
	var sb strings.Builder

	title := r.FileName
	if title == "" {
		title = r.FileKey
	}
	sb.WriteString(fmt.Sprintf("# Figma Export Report - %s\n\n", title))

	res := r.Export
	if res == nil {
		res = &imager.ExportResult{}
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Field | Value |\n|---|---|\n")
	writeRow(&sb, "Run", r.RunID)
	writeRow(&sb, "File key", r.FileKey)
	if !r.GeneratedAt.IsZero() {
		writeRow(&sb, "Generated", r.GeneratedAt.UTC().Format(time.RFC3339))
	}
	writeRow(&sb, "Format", strings.ToUpper(r.Format))
	writeRow(&sb, "Output", r.Location)
	writeRow(&sb, "Discovered", fmt.Sprint(r.Discovered))
	writeRow(&sb, "Render batches", fmt.Sprint(res.Batches))
	writeRow(&sb, "Written", fmt.Sprint(len(res.Assets)))
	writeRow(&sb, "Skipped", fmt.Sprint(len(res.Skipped)))
	writeRow(&sb, "Failed", fmt.Sprint(len(res.Failures)))
	sb.WriteString("\n")

	if len(res.Assets) > 0 {
		sb.WriteString("## Exported Files\n\n")

		groups := make(map[string][]imager.ExportedAsset)
		for _, a := range res.Assets {
			dir := "."
			if i := strings.LastIndexByte(a.RelPath, '/'); i >= 0 {
				dir = a.RelPath[:i]
			}
			groups[dir] = append(groups[dir], a)
		}
		dirs := make([]string, 0, len(groups))
		for d := range groups {
			dirs = append(dirs, d)
		}
		sort.Strings(dirs)

		for _, d := range dirs {
			sb.WriteString(fmt.Sprintf("### %s\n\n", d))
			sb.WriteString("| File | Node | Kind | Size |\n|---|---|---|---|\n")
			for _, a := range groups[d] {
				name := a.RelPath[strings.LastIndexByte(a.RelPath, '/')+1:]
				sb.WriteString(fmt.Sprintf("| %s | `%s` | %s | %s |\n",
					escapeCell(name), a.NodeID, a.Kind, formatBytes(a.Bytes)))
			}
			sb.WriteString("\n")
		}
	}

	if len(res.Skipped) > 0 {
		sb.WriteString("## Not Renderable\n\n")
		sb.WriteString("The image service returned no URL for these nodes.\n\n")
		for _, id := range res.Skipped {
			sb.WriteString(fmt.Sprintf("- `%s`\n", id))
		}
		sb.WriteString("\n")
	}

	if len(res.Failures) > 0 {
		sb.WriteString("## Failures\n\n")
		sb.WriteString("| Node | Stage | Error |\n|---|---|---|\n")
		for _, f := range res.Failures {
			sb.WriteString(fmt.Sprintf("| `%s` | %s | %s |\n", f.NodeID, f.Stage, escapeCell(f.Err.Error())))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeRow(sb *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	sb.WriteString(fmt.Sprintf("| %s | %s |\n", key, escapeCell(value)))
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
