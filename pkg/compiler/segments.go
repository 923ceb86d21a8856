package compiler

import (
	"fmt"
	"strings"
)

// MainSegment is the program entry point. It always exists.
const MainSegment = "main"

// SegmentTable maps each function name to its instruction lines, in
// declaration order. main is created first.
type SegmentTable struct {
	names []string
	code  map[string][]string
}

// NewSegmentTable returns a table holding only an empty main segment.
func NewSegmentTable() *SegmentTable {
	return &SegmentTable{
		names: []string{MainSegment},
		code:  map[string][]string{MainSegment: nil},
	}
}

// Names returns the segment names in declaration order.
func (t *SegmentTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Has reports whether a segment called name exists.
func (t *SegmentTable) Has(name string) bool {
	_, ok := t.code[name]
	return ok
}

// Code returns a copy of the named segment's instructions.
func (t *SegmentTable) Code(name string) []string {
	code := t.code[name]
	out := make([]string, len(code))
	copy(out, code)
	return out
}

// Len is the number of segments.
func (t *SegmentTable) Len() int { return len(t.names) }

func (t *SegmentTable) add(name string) {
	t.names = append(t.names, name)
	t.code[name] = nil
}

func (t *SegmentTable) append(name string, instrs ...string) {
	t.code[name] = append(t.code[name], instrs...)
}

func (t *SegmentTable) last(name string) string {
	code := t.code[name]
	if len(code) == 0 {
		return ""
	}
	return code[len(code)-1]
}

// remove deletes a segment. main cannot be removed.
func (t *SegmentTable) remove(name string) {
	if name == MainSegment {
		return
	}
	delete(t.code, name)
	for i, n := range t.names {
		if n == name {
			t.names = append(t.names[:i], t.names[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy.
func (t *SegmentTable) Clone() *SegmentTable {
	c := &SegmentTable{
		names: t.Names(),
		code:  make(map[string][]string, len(t.code)),
	}
	for name := range t.code {
		c.code[name] = t.Code(name)
	}
	return c
}

// Equal reports whether both tables hold the same segments, in the same
// order, with the same instructions.
func (t *SegmentTable) Equal(o *SegmentTable) bool {
	if len(t.names) != len(o.names) {
		return false
	}
	for i, name := range t.names {
		if o.names[i] != name {
			return false
		}
		a, b := t.code[name], o.code[name]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}

// String renders every segment as a labelled listing.
func (t *SegmentTable) String() string {
	var sb strings.Builder
	for _, name := range t.names {
		fmt.Fprintf(&sb, "%s:\n", name)
		for _, instr := range t.code[name] {
			fmt.Fprintf(&sb, "    %s\n", instr)
		}
	}
	return sb.String()
}
