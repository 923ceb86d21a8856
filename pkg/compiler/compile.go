package compiler

import "fmt"

// Result is everything the pipeline produced for one unit.
type Result struct {
	Source    string // after imports were expanded
	Tokens    []Token
	Exprs     []Expr
	Compiled  *SegmentTable // before shaking
	Segments  *SegmentTable // final output
	Functions map[string]int
}

// Compile runs the whole pipeline over src: imports, scanning, code
// generation, then the configured shake. baseDir resolves imports.
func Compile(src string, baseDir string, opts ...Option) (*Result, error) {
	cfg := newConfig(opts)
	log := cfg.logger

	src, err := Preprocess(src, baseDir)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	log.Debug("preprocessed", "bytes", len(src))

	tokens, err := Lex(src)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}
	log.Debug("scanned", "tokens", len(tokens))

	c := New(tokens, append(append([]Option{}, opts...), WithSource(src))...)
	table, err := c.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	res := &Result{
		Source:    src,
		Tokens:    tokens,
		Exprs:     c.Exprs(),
		Compiled:  table,
		Functions: c.Functions(),
	}
	switch cfg.shake {
	case ShakeModeSingle:
		res.Segments = Shake(table, log)
	case ShakeModeReachable:
		res.Segments = ShakeReachable(table, log)
	default:
		res.Segments = table.Clone()
	}
	log.Debug("shaken", "mode", cfg.shake, "before", table.Len(), "after", res.Segments.Len())
	return res, nil
}
