package imager

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Unnamed replaces names that sanitize to nothing.
const Unnamed = "unnamed"

// MaxSegmentBytes caps a sanitized segment so that a file name built from
// prefix, name, kind and id stays below the common 255 byte limit.
const MaxSegmentBytes = 100

// Sanitize maps an arbitrary node name to a filesystem-safe path segment.
//
// Path separators become '-', characters other than letters, digits, '-',
// '_', '.' and spaces are dropped, whitespace runs collapse to a single '_',
// and leading or trailing '-', '_' and '.' are stripped. Longer results are
// cut at a rune boundary to MaxSegmentBytes. The result is never empty,
// never "." or "..", and Sanitize(Sanitize(s)) == Sanitize(s).
// Distinct names may sanitize to the same segment; callers that need unique
// paths append the node id.
func Sanitize(name string) string {
	name = strings.TrimSpace(name)

	var sb strings.Builder
	sb.Grow(len(name))
	inSpace := false
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			r = '-'
		case unicode.IsSpace(r):
			inSpace = true
			continue
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
		default:
			continue
		}
		if inSpace {
			sb.WriteByte('_')
			inSpace = false
		}
		sb.WriteRune(r)
	}

	out := strings.Trim(sb.String(), "-_.")
	if len(out) > MaxSegmentBytes {
		cut := MaxSegmentBytes
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = strings.TrimRight(out[:cut], "-_.")
	}
	if out == "" {
		return Unnamed
	}
	return out
}

// FileID encodes a node id for use in a file name. Figma ids only use
// digits, 'I', ':' and ';', so the mapping stays injective.
func FileID(id string) string {
	return strings.NewReplacer(":", "_", ";", "-").Replace(id)
}

// Layout controls how candidates map to relative output paths.
type Layout struct {
	Prefix    string // prepended to every file name as "<prefix>_"
	Extension string // without the dot, e.g. "svg"
	Flat      bool   // write every file into the output root
}

// FileName returns "<prefix_><name>__<KIND>__<id>.<ext>" for c.
func (l Layout) FileName(c Candidate) string {
	var sb strings.Builder
	if p := strings.TrimSpace(l.Prefix); p != "" {
		sb.WriteString(Sanitize(p))
		sb.WriteByte('_')
	}
	sb.WriteString(Sanitize(c.DisplayName))
	sb.WriteString("__")
	sb.WriteString(kindTag(c.Kind))
	sb.WriteString("__")
	sb.WriteString(FileID(c.ID))
	if l.Extension != "" {
		sb.WriteByte('.')
		sb.WriteString(strings.TrimPrefix(l.Extension, "."))
	}
	return sb.String()
}

// RelPath returns the slash-separated output path of c relative to the
// output root. Directories mirror the ancestors of the node, the node's own
// segment excluded.
func (l Layout) RelPath(c Candidate) string {
	name := l.FileName(c)
	if l.Flat {
		return name
	}
	dirs := c.Dir()
	if len(dirs) == 0 {
		return name
	}
	return path.Join(append(append([]string(nil), dirs...), name)...)
}

func kindTag(kind string) string {
	if kind == "" {
		return "NODE"
	}
	return Sanitize(strings.ToUpper(kind))
}
