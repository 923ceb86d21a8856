package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"mezcal/pkg/asm"
	"mezcal/pkg/compiler"
	"mezcal/pkg/svm"
	"mezcal/pkg/utils"
	"mezcal/pkg/vm"
)

func main() {
	inPath := flag.String("in", "", "input Mezcal source file path")
	outPath := flag.String("out", "", "output StackVM document path (default: input with .yml extension)")
	runProgram := flag.Bool("run", false, "run the compiled program on the stack machine")
	runSVMPath := flag.String("run-svm", "", "run an existing StackVM document")
	shake := flag.String("shake", "single", "dead function removal: single, reachable or none")
	emitAsm := flag.Bool("emit-asm", false, "print the segment listing")
	emitAST := flag.Bool("emit-ast", false, "print the parsed expressions")
	emitTokens := flag.Bool("emit-tokens", false, "print the token stream")
	maxSteps := flag.Int("max-steps", vm.DefaultMaxSteps, "stop a run after this many instructions (0 for no limit)")
	verbose := flag.Bool("v", false, "log compiler and machine activity to stderr")
	flag.Parse()

	log := newLogger(*verbose)

	if *runProgram && *runSVMPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-svm, not both")
		os.Exit(2)
	}
	if *inPath == "" && *runSVMPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to compile, -run to run compiled output, or -run-svm <file> to run an existing document")
		flag.Usage()
		os.Exit(2)
	}

	mode, err := compiler.ParseShakeMode(*shake)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var doc *svm.Document
	if *inPath != "" {
		res, err := compileFile(*inPath, compiler.WithShake(mode), compiler.WithLogger(log))
		if err != nil {
			fmt.Fprintf(os.Stderr, "compilation failed: %v\n", err)
			os.Exit(1)
		}
		emit(os.Stdout, res, *emitTokens, *emitAST, *emitAsm)

		output := *outPath
		if output == "" {
			output = defaultOutputPath(*inPath)
		}
		doc = newDocument(*inPath, res)
		if err := writeDocument(output, doc); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write document %q: %v\n", output, err)
			os.Exit(1)
		}
		log.Info("wrote document", "path", output, "functions", len(doc.StackVM.Functions))
		fmt.Printf("compiled %d functions -> %s\n", len(doc.StackVM.Functions), output)
	}

	switch {
	case *runSVMPath != "":
		doc, err = readDocument(*runSVMPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read document %q: %v\n", *runSVMPath, err)
			os.Exit(1)
		}
	case *runProgram:
	default:
		return
	}

	if err := runDocument(doc, os.Stdin, os.Stdout, *maxSteps, log); err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// compileFile runs the compiler pipeline over a source file, resolving
// imports against the file's directory.
func compileFile(path string, opts ...compiler.Option) (*compiler.Result, error) {
	src, baseDir, err := utils.ReadSource(path)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(src, baseDir, opts...)
}

func emit(w io.Writer, res *compiler.Result, tokens, ast, listing bool) {
	if tokens {
		fmt.Fprintf(w, "Tokens (%d)\n", len(res.Tokens))
		for _, tok := range res.Tokens {
			fmt.Fprintf(w, "  %d %s %q\n", tok.Line, tok.Type, tok.Lexeme)
		}
	}
	if ast {
		fmt.Fprintln(w, "AST")
		for _, e := range res.Exprs {
			fmt.Fprintln(w, " ", e)
		}
	}
	if listing {
		fmt.Fprint(w, res.Segments)
	}
}

func defaultOutputPath(inPath string) string {
	return utils.ReplaceExt(inPath, ".yml")
}

func programName(inPath string) string {
	return filepath.Base(utils.ReplaceExt(inPath, ""))
}

func newDocument(inPath string, res *compiler.Result) *svm.Document {
	return svm.New(programName(inPath), res.Segments)
}

func writeDocument(path string, doc *svm.Document) error {
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readDocument(path string) (*svm.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return svm.Decode(data)
}

func runDocument(doc *svm.Document, in io.Reader, out io.Writer, maxSteps int, log *slog.Logger) error {
	prog, err := asm.Assemble(doc)
	if err != nil {
		return err
	}
	m := vm.New(prog,
		vm.WithInput(vm.ReaderInput(in)),
		vm.WithOutput(out),
		vm.WithMaxSteps(maxSteps),
		vm.WithLogger(log),
	)
	err = m.Run()
	log.Info("run complete", "program", doc.StackVM.Name, "steps", m.Steps, "halted", m.Halted)
	return err
}
