package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	figmasvgexport "github.com/kataras/figma-svg-export"
	"github.com/kataras/figma-svg-export/pkg/figma"
	"github.com/kataras/figma-svg-export/pkg/logging"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const version = figma.Version

// Exit codes.
const (
	exitOK     = 0
	exitFatal  = 1
	exitConfig = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	rootCmd := newRootCmd(stdout, stderr, getenv)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case figmasvgexport.IsConfigError(err):
		return exitConfig
	default:
		return exitFatal
	}
}

func newRootCmd(stdout, stderr io.Writer, getenv func(string) string) *cobra.Command {
	f := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:   "figma-svg-export [file-key|url]",
		Short: "Export SVG assets from Figma files",
		Long: "Exports every exportable node of a Figma file (or of the given nodes) as SVG or PDF,\n" +
			"mirroring the layer hierarchy in the output directory. Files are named\n" +
			"<name>__<TYPE>__<node id>.<ext> so that same-named layers never collide.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("%w: expected at most one file key or URL, got %d", figmasvgexport.ErrInvalidOption, len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, f, stdout, stderr, getenv)
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", figmasvgexport.ErrInvalidOption, err)
	})
	f.register(rootCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "figma-svg-export version %s\n", version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

func run(cmd *cobra.Command, args []string, f *cliFlags, stdout, stderr io.Writer, getenv func(string) string) error {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	s, err := f.resolve(cmd, args, getenv)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := logging.New(s.logFormat, stderr, s.verbose, runID)
	if j, ok := logger.(*logging.JSON); ok {
		defer j.Sync()
	}

	opts := s.options
	opts.RunID = runID
	opts.Logger = logger

	if strings.TrimSpace(opts.AccessToken) == "" {
		return figmasvgexport.ErrMissingToken
	}
	if s.target.S3 != nil {
		sk, err := openSink(cmd.Context(), s)
		if err != nil {
			return err
		}
		opts.Sink = sk
	}

	if s.logFormat == logging.FormatText {
		cyan.Fprintln(stdout, "\nFigma SVG Export")
		cyan.Fprintln(stdout, "================")
		fmt.Fprintln(stdout)
	}

	result, err := figmasvgexport.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	cyan.Fprintln(stdout, "\nExport Summary:")
	fmt.Fprintf(stdout, "  • File: %s (%s)\n", result.FileName, result.FileKey)
	fmt.Fprintf(stdout, "  • Discovered: %d\n", result.Discovered)
	fmt.Fprintf(stdout, "  • Written: %d\n", result.Written)
	if result.Skipped > 0 {
		yellow.Fprintf(stdout, "  • Not renderable: %d\n", result.Skipped)
	} else {
		fmt.Fprintf(stdout, "  • Not renderable: 0\n")
	}
	if result.Failed > 0 {
		color.New(color.FgRed).Fprintf(stdout, "  • Failed: %d\n", result.Failed)
	} else {
		fmt.Fprintf(stdout, "  • Failed: 0\n")
	}

	if s.report != "" {
		green.Fprintf(stdout, "\nWriting report to %s... ", s.report)
		if err := os.WriteFile(s.report, []byte(result.Markdown()), 0o644); err != nil {
			color.New(color.FgRed).Fprintln(stdout, "✗")
			return fmt.Errorf("write report: %w", err)
		}
		green.Fprintln(stdout, "✓")
	}

	green.Fprintf(stdout, "\nExported %d file(s) to %s\n\n", result.Written, result.Location)
	return nil
}
