// Package figmasvgexport exports vector assets (SVG or PDF) from Figma files
// through the Figma REST API.
//
// The CLI lives in cmd/figma-svg-export; this root package exposes the same
// pipeline as a Go API so that callers can embed the export in their own
// tools without shelling out.
//
// # Import
//
// The module path contains hyphens but Go package names cannot, so the
// package is named figmasvgexport:
//
//	import "github.com/kataras/figma-svg-export" // package figmasvgexport
//
// # Quick start
//
//	result, err := figmasvgexport.Run(ctx, figmasvgexport.Options{
//	    AccessToken: os.Getenv("FIGMA_TOKEN"),
//	    FileRef:     "https://www.figma.com/design/ABC123/Icons",
//	    Mode:        imager.ModeAll,
//	    OutputDir:   "icons",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d written, %d skipped, %d failed\n", result.Written, result.Skipped, result.Failed)
//
// # Pipeline
//
// A run resolves the traversal roots (the requested nodes, or every page of
// the file), selects the exportable nodes, requests render URLs in batches of
// at most 200 ids and downloads each rendered file into a path that mirrors
// the node's ancestors and ends in the node id:
//
//	Page_1/Icons/Arrow__VECTOR__12_34.svg
//
// Every request is retried with exponential backoff. A node the service
// cannot render is skipped, and a node whose render or download keeps failing
// is recorded in [Result.Export] without stopping the run. Files written
// before a failure are kept.
//
// # Logging
//
// Pass a [Logger] implementation in [Options.Logger] to receive progress
// messages. A nil Logger silences all output. The pkg/logging package
// provides console and JSON implementations.
//
// # Errors
//
// Configuration problems wrap [ErrConfig] and are reported before any network
// call; use [IsConfigError] to tell them apart from API failures.
package figmasvgexport
