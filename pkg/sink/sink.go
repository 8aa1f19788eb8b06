// Package sink stores exported files, either under a local directory or in
// an S3 bucket.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Sink persists files at slash-separated relative paths.
type Sink interface {
	Put(ctx context.Context, relPath string, data []byte) error
	// Location returns where relPath ends up, for reporting.
	Location(relPath string) string
}

// ErrUnsafePath is returned for relative paths that would leave the sink root.
var ErrUnsafePath = errors.New("unsafe output path")

// Target describes where a run writes to.
type Target struct {
	Dir string    // local directory, used when S3 is nil
	S3  *S3Config // set for s3:// targets
}

// ParseTarget accepts a local directory or "s3://bucket[/prefix]".
func ParseTarget(target string) (Target, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return Target{}, errors.New("output target is empty")
	}
	if rest, ok := strings.CutPrefix(target, "s3://"); ok {
		bucket, prefix := ParseS3Path(rest)
		cfg := &S3Config{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}
		if err := cfg.Validate(); err != nil {
			return Target{}, err
		}
		return Target{S3: cfg}, nil
	}
	return Target{Dir: target}, nil
}

// Open creates the sink for t. Region, Endpoint and UsePathStyle of s3
// override the parsed S3 configuration when set.
func Open(ctx context.Context, t Target, s3 S3Config) (Sink, error) {
	if t.S3 == nil {
		return NewFile(t.Dir)
	}
	cfg := *t.S3
	if s3.Region != "" {
		cfg.Region = s3.Region
	}
	if s3.Endpoint != "" {
		cfg.Endpoint = s3.Endpoint
	}
	cfg.UsePathStyle = cfg.UsePathStyle || s3.UsePathStyle
	return NewS3(ctx, cfg)
}

// cleanRel validates a slash-separated relative path.
func cleanRel(relPath string) (string, error) {
	if relPath == "" || path.IsAbs(relPath) || strings.Contains(relPath, `\`) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, relPath)
	}
	clean := path.Clean(relPath)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, relPath)
	}
	return clean, nil
}

// FileSink writes under a local root directory, creating parents as needed.
// Existing files are overwritten.
type FileSink struct {
	root string
}

// NewFile returns a FileSink rooted at dir. The directory is created lazily.
func NewFile(dir string) (*FileSink, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir %q: %w", dir, err)
	}
	return &FileSink{root: abs}, nil
}

// Put writes data to relPath under the root.
func (s *FileSink) Put(_ context.Context, relPath string, data []byte) error {
	clean, err := cleanRel(relPath)
	if err != nil {
		return err
	}
	dst := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", dst, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

// Location returns the absolute file path of relPath.
func (s *FileSink) Location(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}
