package figma

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// Anchored to the figma.com host so that lookalike URLs are rejected.
	fileKeyPattern = regexp.MustCompile(`^https?://(?:www\.)?figma\.com/(?:file|design|proto|board)/([A-Za-z0-9]+)(?:[/?#]|$)`)
	bareKeyPattern = regexp.MustCompile(`^[A-Za-z0-9]{5,}$`)
	nodesPathPart  = regexp.MustCompile(`/nodes/([^/?#]+)`)
	fragmentIDs    = regexp.MustCompile(`^I?\d+[:-]\d+`)
)

// ExtractFileKey extracts the file key from a Figma URL such as
// https://www.figma.com/design/ABC123/Design-Name.
func ExtractFileKey(figmaURL string) (string, error) {
	matches := fileKeyPattern.FindStringSubmatch(strings.TrimSpace(figmaURL))
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Figma URL %q: must be a figma.com URL with a /file/ or /design/ path", figmaURL)
	}
	return matches[1], nil
}

// ParseFileRef accepts either a bare file key or a Figma URL and returns the key.
func ParseFileRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("file key or URL is required")
	}
	if bareKeyPattern.MatchString(ref) {
		return ref, nil
	}
	return ExtractFileKey(ref)
}

// NormalizeNodeID converts a node reference to the colon form the API
// expects. Share links use a dash ("2035-4862"); only the first dash is
// replaced. Ids that already contain a colon, or contain no separator at all,
// are returned unchanged (apart from surrounding whitespace).
func NormalizeNodeID(id string) string {
	id = strings.TrimSpace(id)
	if strings.Contains(id, ":") {
		return id
	}
	return strings.Replace(id, "-", ":", 1)
}

// SplitNodeIDs flattens repeated and comma-separated node references,
// normalizes each one and drops empties and duplicates, keeping first-seen order.
func SplitNodeIDs(values ...string) []string {
	var ids []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if id := NormalizeNodeID(part); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return deduplicateNodeIDs(ids)
}

// ExtractNodeIDs returns the node ids referenced by a Figma URL. They may be
// given as a node-id query parameter, a #fragment that starts with a node id,
// or a /nodes/ path segment. Other fragments, such as #comments, are ignored.
// A URL without node references yields an empty slice.
func ExtractNodeIDs(figmaURL string) ([]string, error) {
	u, err := url.Parse(strings.TrimSpace(figmaURL))
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	var raw []string
	raw = append(raw, u.Query()["node-id"]...)
	if fragmentIDs.MatchString(u.Fragment) {
		raw = append(raw, u.Fragment)
	}
	if m := nodesPathPart.FindStringSubmatch(u.Path); len(m) == 2 {
		raw = append(raw, m[1])
	}

	ids := SplitNodeIDs(raw...)
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func deduplicateNodeIDs(ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
