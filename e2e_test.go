package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"mezcal/pkg/compiler"
	"mezcal/pkg/vm"
)

func TestProgramsEndToEnd(t *testing.T) {
	tests := []struct {
		file  string
		input string
		want  string
	}{
		{"fib.mez", "", "0\n1\n1\n2\n3\n5\n8\n13\n21\n34\n55\n"},
		{"shapes.mez", "", "area of the square\n9\n8\n"},
		{"loops.mez", "", "1\n5\n9\n6\n"},
		{"greet.mez", "Ada\n4\n", "What is your name?\nHello, Ada\nHow many?\n10\n"},
		{"greet.mez", "\n0\n", "What is your name?\nHello, stranger\nHow many?\n0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			// 1. Compile
			res, err := compileFile(filepath.Join("_programs", tt.file))
			if err != nil {
				t.Fatalf("compileFile failed: %v", err)
			}

			// 2. Write and read back the document
			path := filepath.Join(t.TempDir(), "out.yml")
			if err := writeDocument(path, newDocument(tt.file, res)); err != nil {
				t.Fatalf("writeDocument failed: %v", err)
			}
			doc, err := readDocument(path)
			if err != nil {
				t.Fatalf("readDocument failed: %v", err)
			}

			// 3. Run
			var out bytes.Buffer
			if err := runDocument(doc, strings.NewReader(tt.input), &out, 100000, newLogger(false)); err != nil {
				t.Fatalf("runDocument failed: %v\nOutput:\n%s", err, out.String())
			}

			// 4. Verify output
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestShakeModesEndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := "function helper() return 1\nfunction unused() return helper()\nprint(2)"
	path := filepath.Join(dir, "dead.mez")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	tests := []struct {
		mode compiler.ShakeMode
		want []string
	}{
		{compiler.ShakeModeNone, []string{"main", "helper", "unused"}},
		{compiler.ShakeModeSingle, []string{"main", "helper"}},
		{compiler.ShakeModeReachable, []string{"main"}},
	}
	for _, tt := range tests {
		res, err := compileFile(path, compiler.WithShake(tt.mode))
		if err != nil {
			t.Fatalf("compileFile failed: %v", err)
		}
		doc := newDocument("dead", res)
		if got := doc.Names(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: functions = %v, want %v", tt.mode, got, tt.want)
		}
		var out bytes.Buffer
		if err := runDocument(doc, strings.NewReader(""), &out, 0, newLogger(false)); err != nil {
			t.Fatalf("%s: runDocument failed: %v", tt.mode, err)
		}
		if out.String() != "2\n" {
			t.Errorf("%s: output = %q", tt.mode, out.String())
		}
	}
}

func TestRunawayProgramStops(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spin.mez")
	if err := os.WriteFile(path, []byte("i = 0\nwhile 1 i = i + 1"), 0644); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	res, err := compileFile(path)
	if err != nil {
		t.Fatalf("compileFile failed: %v", err)
	}
	err = runDocument(newDocument("spin", res), strings.NewReader(""), &bytes.Buffer{}, 5000, newLogger(false))
	if !errors.Is(err, vm.ErrStepLimit) {
		t.Errorf("expected the step limit, got %v", err)
	}
}

func TestEmit(t *testing.T) {
	res, err := compiler.Compile("x = 1 + 2", "")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	var out bytes.Buffer
	emit(&out, res, true, true, true)
	for _, want := range []string{"Tokens (6)", "IDENTIFIER", "AST", "x = (1 PLUS 2)", "main:", "    push 1", "    put x"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	emit(&out, res, false, false, false)
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestPaths(t *testing.T) {
	if got := defaultOutputPath("dir/prog.mez"); got != "dir/prog.yml" {
		t.Errorf("defaultOutputPath = %q", got)
	}
	if got := programName("dir/prog.mez"); got != "prog" {
		t.Errorf("programName = %q", got)
	}
}
