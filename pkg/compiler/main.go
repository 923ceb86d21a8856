// Package compiler provides the Mezcal scanner and a Pratt parser that emits
// stack machine assembly while it parses, one segment per function.
//
// Pipeline: source → Preprocess → Lex → Compiler.Compile → Shake → segments
package compiler
