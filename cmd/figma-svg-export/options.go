package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	figmasvgexport "github.com/kataras/figma-svg-export"
	"github.com/kataras/figma-svg-export/pkg/config"
	"github.com/kataras/figma-svg-export/pkg/fetch"
	"github.com/kataras/figma-svg-export/pkg/imager"
	"github.com/kataras/figma-svg-export/pkg/logging"
	"github.com/kataras/figma-svg-export/pkg/sink"

	"github.com/spf13/cobra"
)

// Token environment variables, in lookup order.
var tokenEnvVars = []string{"FIGMA_TOKEN", "FIGMA_ACCESS_TOKEN"}

type cliFlags struct {
	configPath string
	file       string
	token      string
	nodeIDs    []string
	output     string

	all           bool
	mode          string
	kinds         string
	format        string
	includeHidden bool
	prefix        string
	flat          bool

	batchSize  int
	batchDelay time.Duration
	timeout    time.Duration
	retries    int
	retryBase  float64
	warnOnSkip bool

	svgIncludeID      bool
	svgSimplifyStroke bool
	svgOutlineText    bool
	useRelativeBounds bool

	s3Region    string
	s3Endpoint  string
	s3PathStyle bool

	apiBaseURL string
	logFormat  string
	verbose    bool
	report     string
}

func (f *cliFlags) register(cmd *cobra.Command) {
	policy := fetch.DefaultPolicy()
	svg := figmasvgexport.DefaultSVGOptions()
	fl := cmd.Flags()

	fl.StringVarP(&f.configPath, "config", "c", "", "YAML or TOML config file; flags override its values")
	fl.StringVar(&f.file, "file", "", "Figma file key or URL (alternative to the positional argument)")
	fl.StringVarP(&f.token, "token", "t", "", "Figma Personal Access Token (default $FIGMA_TOKEN, then $FIGMA_ACCESS_TOKEN)")
	fl.StringArrayVarP(&f.nodeIDs, "node-id", "n", nil, "Node id(s) to limit the export to; repeat or comma-separate, 12-34 and 12:34 both work")
	fl.StringVarP(&f.output, "output", "o", figmasvgexport.DefaultOutputDir, "Output directory, or s3://bucket/prefix")

	fl.BoolVar(&f.all, "all", false, "Export every node of an allowed type, not only nodes with export settings (same as --mode all)")
	fl.StringVar(&f.mode, "mode", string(imager.ModeExportSettings), "Selection mode: export_settings or all")
	fl.StringVar(&f.kinds, "types", "", "Comma-separated node types exported in all mode (default: "+strings.Join(imager.SortedKinds(imager.DefaultKinds()), ",")+")")
	fl.StringVar(&f.format, "format", "svg", "Output format: svg or pdf")
	fl.BoolVar(&f.includeHidden, "include-hidden", false, "Also export nodes marked invisible")
	fl.StringVar(&f.prefix, "prefix", "", "Prefix for every exported file name")
	fl.BoolVar(&f.flat, "flat", false, "Write all files into the output root instead of mirroring the layer tree")

	fl.IntVar(&f.batchSize, "batch-size", imager.DefaultBatchSize, fmt.Sprintf("Node ids per render request (max %d)", imager.MaxBatchSize))
	fl.DurationVar(&f.batchDelay, "batch-delay", 0, "Pause between render requests, e.g. 600ms")
	fl.DurationVar(&f.timeout, "timeout", policy.Timeout, "Timeout of a single HTTP attempt")
	fl.IntVar(&f.retries, "retries", policy.MaxAttempts, "Attempts per request before giving up")
	fl.Float64Var(&f.retryBase, "retry-base", policy.BaseDelay, "Backoff base: the wait before retry n is base^n seconds")
	fl.BoolVar(&f.warnOnSkip, "warn-on-skip", false, "Log nodes the service could not render as warnings")

	fl.BoolVar(&f.svgIncludeID, "svg-include-id", svg.IncludeID, "Keep layer names as SVG id attributes")
	fl.BoolVar(&f.svgSimplifyStroke, "svg-simplify-stroke", svg.SimplifyStroke, "Simplify inside and outside strokes")
	fl.BoolVar(&f.svgOutlineText, "svg-outline-text", svg.OutlineText, "Render text as outlines")
	fl.BoolVar(&f.useRelativeBounds, "use-relative-bounds", svg.UseRelativeBounds, "Use the node's full dimensions including effects")

	fl.StringVar(&f.s3Region, "s3-region", "", "AWS region for s3:// outputs")
	fl.StringVar(&f.s3Endpoint, "s3-endpoint", "", "Custom endpoint for S3-compatible storage")
	fl.BoolVar(&f.s3PathStyle, "s3-path-style", false, "Use path-style S3 addressing")

	fl.StringVar(&f.apiBaseURL, "api-base-url", "", "Figma API root")
	fl.StringVar(&f.logFormat, "log-format", string(logging.FormatText), "Log format: text or json")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging")
	fl.StringVar(&f.report, "report", "", "Write a markdown run report to this file")

	_ = fl.MarkHidden("api-base-url")
}

// settings is the merged result of flags, config file and environment.
type settings struct {
	options   figmasvgexport.Options
	target    sink.Target
	s3        sink.S3Config
	logFormat logging.Format
	verbose   bool
	report    string
}

// resolve merges the config file under the flags that were set explicitly.
func (f *cliFlags) resolve(cmd *cobra.Command, args []string, getenv func(string) string) (*settings, error) {
	cfg := &config.Config{}
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", figmasvgexport.ErrInvalidOption, err)
		}
		cfg = loaded
	}
	fl := cmd.Flags()
	set := func(name string) bool { return fl.Changed(name) }

	str := func(name, flagVal, cfgVal string) string {
		if set(name) || cfgVal == "" {
			return flagVal
		}
		return cfgVal
	}
	boolean := func(name string, flagVal bool, cfgVal *bool) bool {
		if set(name) || cfgVal == nil {
			return flagVal
		}
		return *cfgVal
	}
	integer := func(name string, flagVal, cfgVal int) int {
		if set(name) || cfgVal == 0 {
			return flagVal
		}
		return cfgVal
	}
	duration := func(name string, flagVal time.Duration, cfgVal config.Duration) time.Duration {
		if set(name) || cfgVal.Duration == 0 {
			return flagVal
		}
		return cfgVal.Duration
	}

	fileRef := cfg.File
	if len(args) == 1 {
		fileRef = args[0]
	}
	if set("file") || (fileRef == "" && f.file != "") {
		fileRef = f.file
	}
	if strings.TrimSpace(fileRef) == "" {
		return nil, fmt.Errorf("%w: a Figma file key or URL is required", figmasvgexport.ErrInvalidOption)
	}

	token := str("token", f.token, cfg.Token)
	for _, name := range tokenEnvVars {
		if token != "" {
			break
		}
		token = getenv(name)
	}

	nodeIDs := cfg.NodeIDs
	if set("node-id") {
		nodeIDs = f.nodeIDs
	}

	mode := str("mode", f.mode, cfg.Mode)
	if f.all {
		mode = string(imager.ModeAll)
	}
	parsedMode, err := imager.ParseMode(mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", figmasvgexport.ErrInvalidOption, err)
	}

	kinds := f.kinds
	if !set("types") && len(cfg.Kinds) > 0 {
		kinds = strings.Join(cfg.Kinds, ",")
	}

	batchSize := integer("batch-size", f.batchSize, cfg.BatchSize)
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", figmasvgexport.ErrInvalidOption, batchSize)
	}

	retryBase := f.retryBase
	if !set("retry-base") && cfg.RetryBase != 0 {
		retryBase = cfg.RetryBase
	}
	retry := fetch.Policy{
		MaxAttempts: integer("retries", f.retries, cfg.Retries),
		BaseDelay:   retryBase,
		Timeout:     duration("timeout", f.timeout, cfg.Timeout),
	}
	if err := retry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", figmasvgexport.ErrInvalidOption, err)
	}

	output := str("output", f.output, cfg.Output)
	target, err := sink.ParseTarget(output)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", figmasvgexport.ErrInvalidOption, err)
	}

	logFormat, err := logging.ParseFormat(str("log-format", f.logFormat, cfg.LogFormat))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", figmasvgexport.ErrInvalidOption, err)
	}

	opts := figmasvgexport.Options{
		AccessToken:   token,
		FileRef:       fileRef,
		NodeIDs:       nodeIDs,
		Mode:          parsedMode,
		Format:        str("format", f.format, cfg.Format),
		AllowedKinds:  imager.ParseKinds(kinds),
		IncludeHidden: boolean("include-hidden", f.includeHidden, cfg.IncludeHidden),
		OutputDir:     target.Dir,
		Prefix:        str("prefix", f.prefix, cfg.Prefix),
		Flat:          boolean("flat", f.flat, cfg.Flat),
		SVG: &figmasvgexport.SVGOptions{
			IncludeID:         boolean("svg-include-id", f.svgIncludeID, cfg.SVG.IncludeID),
			SimplifyStroke:    boolean("svg-simplify-stroke", f.svgSimplifyStroke, cfg.SVG.SimplifyStroke),
			OutlineText:       boolean("svg-outline-text", f.svgOutlineText, cfg.SVG.OutlineText),
			UseRelativeBounds: boolean("use-relative-bounds", f.useRelativeBounds, cfg.SVG.UseRelativeBounds),
		},
		BatchSize:  batchSize,
		BatchDelay: duration("batch-delay", f.batchDelay, cfg.BatchDelay),
		WarnOnSkip: boolean("warn-on-skip", f.warnOnSkip, cfg.WarnOnSkip),
		Retry:      &retry,
		APIBaseURL: str("api-base-url", f.apiBaseURL, cfg.APIBaseURL),
	}

	return &settings{
		options: opts,
		target:  target,
		s3: sink.S3Config{
			Region:       str("s3-region", f.s3Region, cfg.Storage.Region),
			Endpoint:     str("s3-endpoint", f.s3Endpoint, cfg.Storage.Endpoint),
			UsePathStyle: f.s3PathStyle || cfg.Storage.S3PathStyle,
		},
		logFormat: logFormat,
		verbose:   f.verbose,
		report:    str("report", f.report, cfg.Report),
	}, nil
}

func openSink(ctx context.Context, s *settings) (sink.Sink, error) {
	sk, err := sink.Open(ctx, s.target, s.s3)
	if err != nil {
		return nil, fmt.Errorf("open output s3://%s: %w", s.target.S3.Bucket, err)
	}
	return sk, nil
}
