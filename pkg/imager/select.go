package imager

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kataras/figma-svg-export/pkg/figma"
)

// Mode selects the export-eligibility rule.
type Mode string

const (
	// ModeExportSettings exports nodes that declare an export setting in the target format.
	ModeExportSettings Mode = "export_settings"
	// ModeAll exports every node whose type is in the allowed set.
	ModeAll Mode = "all"
)

// ParseMode accepts "all", "export_settings" and "export-settings" (case-insensitive).
// An empty string selects ModeExportSettings.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "export_settings", "export-settings":
		return ModeExportSettings, nil
	case "all":
		return ModeAll, nil
	}
	return "", fmt.Errorf("unknown export mode %q (must be all or export_settings)", s)
}

var defaultKinds = []string{
	"FRAME",
	"GROUP",
	"COMPONENT",
	"COMPONENT_SET",
	"INSTANCE",
	"VECTOR",
	"RECTANGLE",
	"ELLIPSE",
	"LINE",
	"POLYGON",
	"STAR",
	"BOOLEAN_OPERATION",
	"TEXT",
	"SLICE",
}

// DefaultKinds returns the node types exported in ModeAll when no explicit set is given.
func DefaultKinds() map[string]bool {
	kinds := make(map[string]bool, len(defaultKinds))
	for _, k := range defaultKinds {
		kinds[k] = true
	}
	return kinds
}

// ParseKinds parses a comma-separated list of node types. Blank input yields nil.
func ParseKinds(s string) map[string]bool {
	var kinds map[string]bool
	for _, part := range strings.Split(s, ",") {
		k := strings.ToUpper(strings.TrimSpace(part))
		if k == "" {
			continue
		}
		if kinds == nil {
			kinds = make(map[string]bool)
		}
		kinds[k] = true
	}
	return kinds
}

// SortedKinds returns the keys of kinds in lexical order.
func SortedKinds(kinds map[string]bool) []string {
	out := make([]string, 0, len(kinds))
	for k, ok := range kinds {
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// SelectOptions is the export-eligibility policy.
type SelectOptions struct {
	Mode          Mode
	Format        string          // target vector format, matched against export settings
	AllowedKinds  map[string]bool // ModeAll only; nil means DefaultKinds
	IncludeHidden bool            // export nodes marked visible: false
}

// ShouldExport reports whether a single node is eligible under opts.
// Document roots and pages are never eligible.
func ShouldExport(node *figma.Node, opts SelectOptions) bool {
	if node == nil || node.IsContainerOnly() {
		return false
	}
	if !opts.IncludeHidden && !node.IsVisible() {
		return false
	}

	switch opts.Mode {
	case ModeAll:
		kinds := opts.AllowedKinds
		if kinds == nil {
			kinds = DefaultKinds()
		}
		return kinds[strings.ToUpper(node.Type)]
	default:
		format := opts.Format
		if format == "" {
			format = "svg"
		}
		return node.HasExportFormat(format)
	}
}

// Candidate is a node selected for export.
type Candidate struct {
	ID          string
	DisplayName string
	// AncestorPath holds the sanitized names from the traversal root down to
	// and including this node, so len(AncestorPath) == depth+1.
	AncestorPath []string
	Kind         string
}

// Dir returns the ancestor segments above the node itself.
func (c Candidate) Dir() []string {
	if len(c.AncestorPath) == 0 {
		return nil
	}
	return c.AncestorPath[:len(c.AncestorPath)-1]
}

// Selection is the ordered, id-unique result of a traversal.
type Selection struct {
	candidates []Candidate
	index      map[string]int
}

// Len returns the number of candidates.
func (s *Selection) Len() int { return len(s.candidates) }

// Candidates returns the candidates in discovery order.
func (s *Selection) Candidates() []Candidate { return s.candidates }

// IDs returns the candidate ids in discovery order.
func (s *Selection) IDs() []string {
	ids := make([]string, len(s.candidates))
	for i, c := range s.candidates {
		ids[i] = c.ID
	}
	return ids
}

// Lookup returns the candidate with the given id.
func (s *Selection) Lookup(id string) (Candidate, bool) {
	i, ok := s.index[id]
	if !ok {
		return Candidate{}, false
	}
	return s.candidates[i], true
}

func (s *Selection) add(c Candidate) {
	if _, dup := s.index[c.ID]; dup {
		return
	}
	s.index[c.ID] = len(s.candidates)
	s.candidates = append(s.candidates, c)
}

// segment is an immutable, parent-linked ancestor path. Children share
// their parent's list, so pushing a level costs O(1).
type segment struct {
	name   string
	parent *segment
	depth  int
}

func (s *segment) push(name string) *segment {
	d := 1
	if s != nil {
		d = s.depth + 1
	}
	return &segment{name: name, parent: s, depth: d}
}

func (s *segment) slice() []string {
	if s == nil {
		return nil
	}
	out := make([]string, s.depth)
	for cur := s; cur != nil; cur = cur.parent {
		out[cur.depth-1] = cur.name
	}
	return out
}

type frame struct {
	node *figma.Node
	path *segment // ancestors of node
}

// Select walks every root depth-first in document order and collects the
// eligible nodes. The walk uses an explicit stack, so arbitrarily deep trees
// are fine. Nil nodes and eligible nodes without an id are skipped; a node
// reachable from more than one root is reported once, at its first position.
func Select(roots []*figma.Node, opts SelectOptions) *Selection {
	sel := &Selection{index: make(map[string]int)}

	for _, root := range roots {
		stack := []frame{{node: root}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			node := top.node
			if node == nil {
				continue
			}

			name := node.Name
			if name == "" {
				name = node.ID
			}
			own := top.path.push(Sanitize(name))

			if node.ID != "" && ShouldExport(node, opts) {
				sel.add(Candidate{
					ID:           node.ID,
					DisplayName:  name,
					AncestorPath: own.slice(),
					Kind:         strings.ToUpper(node.Type),
				})
			}

			// Reverse push keeps document order when popping.
			for i := len(node.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: node.Children[i], path: own})
			}
		}
	}

	return sel
}
