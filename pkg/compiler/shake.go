package compiler

import (
	"fmt"
	"log/slog"
)

// ShakeMode selects the dead-segment pass Compile runs.
type ShakeMode int

const (
	ShakeModeSingle    ShakeMode = iota // one sweep in declaration order
	ShakeModeReachable                  // everything not reachable from main
	ShakeModeNone
)

func (m ShakeMode) String() string {
	switch m {
	case ShakeModeSingle:
		return "single"
	case ShakeModeReachable:
		return "reachable"
	case ShakeModeNone:
		return "none"
	}
	return fmt.Sprintf("ShakeMode(%d)", int(m))
}

// ParseShakeMode maps a command line value to a ShakeMode.
func ParseShakeMode(s string) (ShakeMode, error) {
	for _, m := range []ShakeMode{ShakeModeSingle, ShakeModeReachable, ShakeModeNone} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown shake mode %q (want single, reachable or none)", s)
}

// Shake makes one sweep over the segments in declaration order and removes
// each one, other than main, that no remaining segment calls. Segments count
// as callers until they are removed themselves, including a segment calling
// itself.
//
// The sweep is not transitive. When g is declared before f and only f calls
// g, g survives even if f is then removed; shaking again removes g. Use
// ShakeReachable for the closure from main.
func Shake(t *SegmentTable, log *slog.Logger) *SegmentTable {
	out := t.Clone()
	for _, name := range t.Names() {
		if name == MainSegment {
			continue
		}
		if !calledBy(out, name) {
			out.remove(name)
			logRemoved(log, name, "single")
		}
	}
	return out
}

// ShakeReachable keeps main and every segment reachable from it through call
// instructions.
func ShakeReachable(t *SegmentTable, log *slog.Logger) *SegmentTable {
	reachable := map[string]bool{MainSegment: true}
	worklist := []string{MainSegment}

	for len(worklist) > 0 {
		curr := worklist[0]
		worklist = worklist[1:]
		for _, instr := range t.code[curr] {
			callee, ok := callTarget(instr)
			if !ok || reachable[callee] || !t.Has(callee) {
				continue
			}
			reachable[callee] = true
			worklist = append(worklist, callee)
		}
	}

	out := t.Clone()
	for _, name := range t.Names() {
		if !reachable[name] {
			out.remove(name)
			logRemoved(log, name, "reachable")
		}
	}
	return out
}

// calledBy reports whether any segment of t contains exactly "call name".
func calledBy(t *SegmentTable, name string) bool {
	want := "call " + name
	for _, seg := range t.names {
		for _, instr := range t.code[seg] {
			if instr == want {
				return true
			}
		}
	}
	return false
}

func callTarget(instr string) (string, bool) {
	const prefix = "call "
	if len(instr) <= len(prefix) || instr[:len(prefix)] != prefix {
		return "", false
	}
	return instr[len(prefix):], true
}

func logRemoved(log *slog.Logger, name, mode string) {
	if log != nil {
		log.Info("removed unused function", "name", name, "mode", mode)
	}
}
