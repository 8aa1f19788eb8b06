package figma

import "strings"

// Node types that never render on their own.
const (
	TypeDocument = "DOCUMENT"
	TypeCanvas   = "CANVAS" // a page in the REST API
	TypePage     = "PAGE"
)

// FileResponse represents the response from the Figma file endpoint.
// It contains the file metadata and the complete document tree.
type FileResponse struct {
	Name          string `json:"name"`
	LastModified  string `json:"lastModified"`
	ThumbnailURL  string `json:"thumbnailUrl"`
	Version       string `json:"version"`
	Document      Node   `json:"document"`
	SchemaVersion int    `json:"schemaVersion"`
}

// Pages returns the document's top-level pages, skipping null entries.
func (f *FileResponse) Pages() []*Node {
	pages := make([]*Node, 0, len(f.Document.Children))
	for _, child := range f.Document.Children {
		if child != nil {
			pages = append(pages, child)
		}
	}
	return pages
}

// NodesResponse represents the response from the Figma nodes endpoint.
// A requested id that does not exist or cannot be accessed maps to a nil NodeData.
type NodesResponse struct {
	Name         string               `json:"name"`
	LastModified string               `json:"lastModified"`
	Version      string               `json:"version"`
	Nodes        map[string]*NodeData `json:"nodes"`
}

// NodeData wraps a requested node subtree.
type NodeData struct {
	Document *Node `json:"document"`
}

// ImagesResponse is returned by the image-rendering endpoint.
// Images maps a node id to a short-lived download URL; the value is null
// for nodes that could not be rendered.
type ImagesResponse struct {
	Err    *string            `json:"err"`
	Status int                `json:"status,omitempty"`
	Images map[string]*string `json:"images"`
}

// URL returns the render URL for id, or "" when the node was not rendered.
func (r *ImagesResponse) URL(id string) string {
	if r == nil {
		return ""
	}
	if u := r.Images[id]; u != nil {
		return *u
	}
	return ""
}

// Node is a single element of the Figma document tree.
type Node struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Visible        *bool           `json:"visible,omitempty"`
	Children       []*Node         `json:"children,omitempty"`
	ExportSettings []ExportSetting `json:"exportSettings,omitempty"`
}

// IsVisible reports the node's visibility; an absent attribute means visible.
func (n *Node) IsVisible() bool {
	return n.Visible == nil || *n.Visible
}

// IsContainerOnly reports whether the node is a document root or a page.
func (n *Node) IsContainerOnly() bool {
	switch strings.ToUpper(n.Type) {
	case TypeDocument, TypeCanvas, TypePage:
		return true
	}
	return false
}

// HasExportFormat reports whether the designer declared an export setting
// with the given format (case-insensitive).
func (n *Node) HasExportFormat(format string) bool {
	for _, s := range n.ExportSettings {
		if strings.EqualFold(s.Format, format) {
			return true
		}
	}
	return false
}

// ExportSetting is an export preset declared on a node in the Figma editor.
type ExportSetting struct {
	Suffix     string     `json:"suffix"`
	Format     string     `json:"format"`
	Constraint Constraint `json:"constraint"`
}

// Constraint is the sizing rule of an export setting (SCALE, WIDTH or HEIGHT).
type Constraint struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// ImageParams are the query options sent to the image-rendering endpoint.
type ImageParams struct {
	Format            string // "svg" or "pdf"
	SVGIncludeID      bool
	SVGSimplifyStroke bool
	SVGOutlineText    bool
	UseRelativeBounds bool
}
