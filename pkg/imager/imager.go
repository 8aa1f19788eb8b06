// Package imager selects exportable nodes from a Figma document tree and
// exports them through the image-rendering endpoint.
//
// The pieces are independent: [Select] walks the tree, [Batches] plans the
// render requests, [Layout] names the output files and [Export] drives the
// requests, downloads and writes, one batch at a time.
package imager

import (
	"context"
	"fmt"
	"time"

	"github.com/kataras/figma-svg-export/pkg/figma"
)

// Renderer is the subset of the Figma client used for exporting.
type Renderer interface {
	GetImages(ctx context.Context, fileKey string, nodeIDs []string, params figma.ImageParams) (*figma.ImagesResponse, error)
	Download(ctx context.Context, renderURL string) ([]byte, error)
}

// Writer persists exported files at slash-separated relative paths.
type Writer interface {
	Put(ctx context.Context, relPath string, data []byte) error
	Location(relPath string) string
}

// Logger receives per-node progress. Methods must be safe to call with any arguments.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ExportConfig holds configuration for an export run.
type ExportConfig struct {
	Params     figma.ImageParams
	Layout     Layout
	BatchSize  int           // ids per render request, at most MaxBatchSize
	BatchDelay time.Duration // pause between render requests, not before the first
	WarnOnSkip bool          // log not-renderable nodes at warn instead of info
	Logger     Logger        // nil = silent
}

// Failure stages.
const (
	StageRender   = "render"
	StageDownload = "download"
	StageWrite    = "write"
)

// ExportedAsset represents a single written file.
type ExportedAsset struct {
	NodeID   string
	NodeName string
	Kind     string
	RelPath  string
	Location string
	Bytes    int
}

// NodeFailure is a per-node error that did not stop the run.
type NodeFailure struct {
	NodeID string
	Stage  string
	Err    error
}

func (f NodeFailure) Error() string {
	return fmt.Sprintf("node %s: %s: %v", f.NodeID, f.Stage, f.Err)
}

func (f NodeFailure) Unwrap() error { return f.Err }

// ExportResult holds the outcome of an export run.
type ExportResult struct {
	Assets   []ExportedAsset
	Skipped  []string // ids the service did not render
	Failures []NodeFailure
	Batches  int
}

// Export renders and writes every candidate of sel. Render-request failures
// mark the whole batch as failed, download and write failures mark a single
// node; in both cases the run continues. Only a cancelled context or an
// invalid configuration stops it early, and files already written stay on disk.
func Export(ctx context.Context, r Renderer, w Writer, fileKey string, sel *Selection, config ExportConfig) (*ExportResult, error) {
	log := config.Logger
	if log == nil {
		log = nopLogger{}
	}

	size, _ := ClampBatchSize(config.BatchSize)
	batches, err := Batches(sel.IDs(), size)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{}
	for i, batch := range batches {
		if i > 0 && config.BatchDelay > 0 {
			if err := pause(ctx, config.BatchDelay); err != nil {
				return result, err
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		log.Infof("Requesting render URLs for batch %d/%d (%d node(s))", i+1, len(batches), len(batch))
		result.Batches++

		imgResp, err := r.GetImages(ctx, fileKey, batch, config.Params)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			log.Errorf("Render request for batch %d failed: %v", i+1, err)
			for _, id := range batch {
				result.Failures = append(result.Failures, NodeFailure{NodeID: id, Stage: StageRender, Err: err})
			}
			continue
		}

		for _, id := range batch {
			if err := exportNode(ctx, r, w, sel, id, imgResp.URL(id), config, log, result); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}

// exportNode handles one id of a batch. It only returns an error when ctx is done.
func exportNode(ctx context.Context, r Renderer, w Writer, sel *Selection, id, renderURL string, config ExportConfig, log Logger, result *ExportResult) error {
	c, ok := sel.Lookup(id)
	if !ok {
		c = Candidate{ID: id, DisplayName: id}
	}

	if renderURL == "" {
		result.Skipped = append(result.Skipped, id)
		if config.WarnOnSkip {
			log.Warnf("No render URL for %s (%s), skipping", id, c.DisplayName)
		} else {
			log.Infof("No render URL for %s (%s), skipping", id, c.DisplayName)
		}
		return nil
	}

	data, err := r.Download(ctx, renderURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Errorf("Download of %s (%s) failed: %v", id, c.DisplayName, err)
		result.Failures = append(result.Failures, NodeFailure{NodeID: id, Stage: StageDownload, Err: err})
		return nil
	}

	rel := config.Layout.RelPath(c)
	if err := w.Put(ctx, rel, data); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Errorf("Write of %s to %s failed: %v", id, rel, err)
		result.Failures = append(result.Failures, NodeFailure{NodeID: id, Stage: StageWrite, Err: err})
		return nil
	}

	loc := w.Location(rel)
	log.Debugf("Wrote %s (%d bytes)", loc, len(data))
	result.Assets = append(result.Assets, ExportedAsset{
		NodeID:   id,
		NodeName: c.DisplayName,
		Kind:     c.Kind,
		RelPath:  rel,
		Location: loc,
		Bytes:    len(data),
	})
	return nil
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
