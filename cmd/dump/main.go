package main

import (
	"fmt"
	"os"

	"mezcal/pkg/compiler"
	"mezcal/pkg/natives"
	"mezcal/pkg/utils"
)

const testSource = `function sq(x) return x * x
y = 20
for i = 1 to 3 print(sq(i) + y)
`

func main() {
	src := testSource
	baseDir := "."
	if len(os.Args) > 1 {
		var err error
		src, baseDir, err = utils.ReadSource(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
	}

	// Preprocess
	var err error
	src, err = compiler.Preprocess(src, baseDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "preprocess error:", err)
		os.Exit(1)
	}

	fmt.Printf("Source:\n%s\n", src)

	// Lex
	tokens, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Printf("  %d %s %q\n", tok.Line, tok.Type, tok.Lexeme)
	}
	fmt.Println()

	// Parse and generate
	c := compiler.New(tokens, compiler.WithSource(src))
	table, err := c.Compile()
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	fmt.Println("AST")
	for _, e := range c.Exprs() {
		fmt.Println(" ", e)
	}
	fmt.Println()

	fmt.Println("Generated Assembly")
	fmt.Print(table)
	fmt.Println()

	// Shake
	single := compiler.Shake(table, nil)
	reachable := compiler.ShakeReachable(table, nil)
	fmt.Printf("Functions %v\n", table.Names())
	fmt.Printf("  after single pass: %v\n", single.Names())
	fmt.Printf("  reachable from main: %v\n", reachable.Names())
	fmt.Printf("Natives %v\n", natives.Names())
}
