package figmasvgexport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kataras/figma-svg-export/pkg/fetch"
	"github.com/kataras/figma-svg-export/pkg/figma"
	"github.com/kataras/figma-svg-export/pkg/formatter"
	"github.com/kataras/figma-svg-export/pkg/imager"
	"github.com/kataras/figma-svg-export/pkg/sink"
)

// DefaultOutputDir is used when neither OutputDir nor Sink is set.
const DefaultOutputDir = "figma-svgs"

// SVGOptions are the switches sent to the rendering endpoint for SVG output.
type SVGOptions struct {
	IncludeID         bool // keep layer names as id attributes
	SimplifyStroke    bool
	OutlineText       bool // convert text to paths
	UseRelativeBounds bool // also sent for PDF
}

// DefaultSVGOptions returns include-id and outline-text on, the rest off.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{IncludeID: true, OutlineText: true}
}

// Options configures an export run. Zero values select the documented defaults.
type Options struct {
	AccessToken string
	FileRef     string   // file key or Figma URL
	NodeIDs     []string // empty = node ids of the URL, or the entire file

	Mode          imager.Mode     // default ModeExportSettings
	Format        string          // "svg" (default) or "pdf"
	AllowedKinds  map[string]bool // ModeAll only; nil = imager.DefaultKinds
	IncludeHidden bool

	OutputDir string    // local directory, ignored when Sink is set
	Sink      sink.Sink // custom destination, e.g. an S3 bucket
	Prefix    string    // file name prefix
	Flat      bool      // no ancestor directories

	SVG *SVGOptions // nil = DefaultSVGOptions

	BatchSize  int           // ids per render request; default 100, capped at 200
	BatchDelay time.Duration // pause between render requests
	WarnOnSkip bool          // log nodes without render URL at warn level
	// Retry is the per-request retry policy. Nil selects fetch.DefaultPolicy;
	// otherwise every field is used as given, so a zero Timeout or BaseDelay
	// disables it and MaxAttempts below 1 is rejected.
	Retry *fetch.Policy

	APIBaseURL string       // default figma.DefaultBaseURL
	HTTPClient *http.Client // nil = fetch.NewHTTPClient
	RunID      string       // default a random UUID
	Logger     Logger       // nil = no logging
}

// Logger receives progress messages. A nil Logger means silent operation.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Result summarizes an export run.
type Result struct {
	RunID      string
	FileKey    string
	FileName   string
	Format     string
	Location   string // output directory or s3:// URI
	StartedAt  time.Time
	Discovered int // candidates selected for export
	Written    int
	Skipped    int
	Failed     int
	Export     *imager.ExportResult
}

// Markdown renders the run as a markdown report.
func (r *Result) Markdown() string {
	return formatter.ToMarkdown(formatter.Report{
		RunID:       r.RunID,
		FileKey:     r.FileKey,
		FileName:    r.FileName,
		Location:    r.Location,
		Format:      r.Format,
		Discovered:  r.Discovered,
		GeneratedAt: r.StartedAt,
		Export:      r.Export,
	})
}

func (o *Options) logDebug(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Debugf(f, a...)
	}
}

func (o *Options) logInfo(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Infof(f, a...)
	}
}

func (o *Options) logWarn(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Warnf(f, a...)
	}
}

// plan is the validated form of Options.
type plan struct {
	fileKey  string
	nodeIDs  []string
	selectOp imager.SelectOptions
	export   imager.ExportConfig
	policy   fetch.Policy
	sink     sink.Sink
}

// Run executes the export pipeline. Configuration is validated before any
// network call. Per-node failures do not make Run fail; they are reported in
// Result.Export. Fatal errors still return the partial Result when one exists.
func Run(ctx context.Context, opts Options) (*Result, error) {
	p, err := opts.plan()
	if err != nil {
		return nil, err
	}

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	result := &Result{
		RunID:     opts.RunID,
		FileKey:   p.fileKey,
		Format:    p.export.Params.Format,
		Location:  p.sink.Location(""),
		StartedAt: time.Now(),
	}
	opts.logInfo("Run %s: exporting %s from file %s", result.RunID, strings.ToUpper(result.Format), p.fileKey)

	clientOpts := []figma.Option{figma.WithPolicy(p.policy)}
	if opts.APIBaseURL != "" {
		clientOpts = append(clientOpts, figma.WithBaseURL(opts.APIBaseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, figma.WithHTTPClient(opts.HTTPClient))
	}
	client := figma.NewClient(opts.AccessToken, clientOpts...)

	roots, fileName, err := resolveRoots(ctx, &opts, client, p)
	if err != nil {
		return result, err
	}
	result.FileName = fileName
	if fileName != "" {
		opts.logInfo("File: %s", fileName)
	}

	sel := imager.Select(roots, p.selectOp)
	result.Discovered = sel.Len()
	opts.logInfo("Discovered %d exportable node(s) under %d root(s)", sel.Len(), len(roots))

	if sel.Len() == 0 {
		if len(p.nodeIDs) > 0 {
			return result, fmt.Errorf("%w (mode %s, nodes %s)", ErrEmptyScope, p.selectOp.Mode, strings.Join(p.nodeIDs, ","))
		}
		opts.logWarn("No exportable nodes found in the file (mode %s)", p.selectOp.Mode)
		result.Export = &imager.ExportResult{}
		return result, nil
	}

	export, err := imager.Export(ctx, client, p.sink, p.fileKey, sel, p.export)
	result.Export = export
	if export != nil {
		result.Written = len(export.Assets)
		result.Skipped = len(export.Skipped)
		result.Failed = len(export.Failures)
	}
	if err != nil {
		return result, fmt.Errorf("export: %w", err)
	}

	opts.logInfo("Done: %d written, %d skipped, %d failed", result.Written, result.Skipped, result.Failed)
	return result, nil
}

// resolveRoots loads the subtrees of the requested nodes, or the pages of
// the whole file when no node was requested.
func resolveRoots(ctx context.Context, opts *Options, client *figma.Client, p *plan) ([]*figma.Node, string, error) {
	if len(p.nodeIDs) == 0 {
		opts.logInfo("Fetching file data from Figma...")
		file, err := client.GetFile(ctx, p.fileKey)
		if err != nil {
			return nil, "", fmt.Errorf("fetch file: %w", err)
		}
		pages := file.Pages()
		if len(pages) == 0 {
			return nil, file.Name, fmt.Errorf("%w: file %s has no pages", ErrNoRoots, p.fileKey)
		}
		return pages, file.Name, nil
	}

	opts.logInfo("Fetching %d node(s) from Figma...", len(p.nodeIDs))
	chunks, err := imager.Batches(p.nodeIDs, imager.NodesBatchSize)
	if err != nil {
		return nil, "", err
	}

	var (
		roots    []*figma.Node
		fileName string
	)
	for _, chunk := range chunks {
		resp, err := client.GetFileNodes(ctx, p.fileKey, chunk)
		if err != nil {
			return nil, fileName, fmt.Errorf("fetch nodes: %w", err)
		}
		if fileName == "" {
			fileName = resp.Name
		}
		for _, id := range chunk {
			nd := resp.Nodes[id]
			if nd == nil || nd.Document == nil {
				opts.logWarn("Node %s not found in file %s", id, p.fileKey)
				continue
			}
			opts.logDebug("Node %s: %s (%s)", id, nd.Document.Name, nd.Document.Type)
			roots = append(roots, nd.Document)
		}
	}

	if len(roots) == 0 {
		return nil, fileName, fmt.Errorf("%w: none of the requested nodes exist (%s)", ErrNoRoots, strings.Join(p.nodeIDs, ","))
	}
	return roots, fileName, nil
}

// plan applies defaults and validates opts.
func (o *Options) plan() (*plan, error) {
	if strings.TrimSpace(o.AccessToken) == "" {
		return nil, ErrMissingToken
	}

	fileKey, err := figma.ParseFileRef(o.FileRef)
	if err != nil {
		return nil, invalidOption("%v", err)
	}

	nodeIDs := figma.SplitNodeIDs(o.NodeIDs...)
	if len(nodeIDs) == 0 && strings.Contains(o.FileRef, "://") {
		if ids, err := figma.ExtractNodeIDs(o.FileRef); err == nil && len(ids) > 0 {
			o.logInfo("Using %d node id(s) from the URL", len(ids))
			nodeIDs = ids
		}
	}

	mode, err := imager.ParseMode(string(o.Mode))
	if err != nil {
		return nil, invalidOption("%v", err)
	}

	format := strings.ToLower(strings.TrimSpace(o.Format))
	switch format {
	case "":
		format = "svg"
	case "svg", "pdf":
	default:
		return nil, invalidOption("unsupported format %q (must be svg or pdf)", o.Format)
	}

	batchSize := o.BatchSize
	switch {
	case batchSize == 0:
		batchSize = imager.DefaultBatchSize
	case batchSize < 0:
		return nil, invalidOption("batch size must be positive, got %d", batchSize)
	}
	if clamped, changed := imager.ClampBatchSize(batchSize); changed {
		o.logWarn("Batch size %d exceeds the maximum of %d, using %d", batchSize, imager.MaxBatchSize, clamped)
		batchSize = clamped
	}
	if o.BatchDelay < 0 {
		return nil, invalidOption("batch delay must not be negative, got %s", o.BatchDelay)
	}

	policy := fetch.DefaultPolicy()
	if o.Retry != nil {
		policy = *o.Retry
	}
	if err := policy.Validate(); err != nil {
		return nil, invalidOption("%v", err)
	}

	kinds := o.AllowedKinds
	if mode == imager.ModeAll && kinds != nil && len(kinds) == 0 {
		return nil, invalidOption("allowed kinds must not be empty")
	}

	svg := DefaultSVGOptions()
	if o.SVG != nil {
		svg = *o.SVG
	}

	s := o.Sink
	if s == nil {
		dir := o.OutputDir
		if dir == "" {
			dir = DefaultOutputDir
		}
		fs, err := sink.NewFile(dir)
		if err != nil {
			return nil, invalidOption("%v", err)
		}
		s = fs
	}

	var log imager.Logger
	if o.Logger != nil {
		log = o.Logger
	}

	return &plan{
		fileKey: fileKey,
		nodeIDs: nodeIDs,
		selectOp: imager.SelectOptions{
			Mode:          mode,
			Format:        format,
			AllowedKinds:  kinds,
			IncludeHidden: o.IncludeHidden,
		},
		export: imager.ExportConfig{
			Params: figma.ImageParams{
				Format:            format,
				SVGIncludeID:      svg.IncludeID,
				SVGSimplifyStroke: svg.SimplifyStroke,
				SVGOutlineText:    svg.OutlineText,
				UseRelativeBounds: svg.UseRelativeBounds,
			},
			Layout:     imager.Layout{Prefix: o.Prefix, Extension: format, Flat: o.Flat},
			BatchSize:  batchSize,
			BatchDelay: o.BatchDelay,
			WarnOnSkip: o.WarnOnSkip,
			Logger:     log,
		},
		policy: policy,
		sink:   s,
	}, nil
}
