// Package svm reads and writes the StackVM document: a versioned YAML file
// holding one named instruction listing per function.
//
//	stackvm:
//	  version: "0.0.0"
//	  name: fib
//	  build: 01J9Z3...
//	  functions:
//	    - name: main
//	      description: main
//	      definition: |
//	        push 10
//	        call fib
//	        end
package svm

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"mezcal/pkg/asm"
)

// Version is written into every document this package produces.
const Version = "0.0.0"

type Document struct {
	StackVM StackVM `yaml:"stackvm"`
}

type StackVM struct {
	Version   string     `yaml:"version"`
	Name      string     `yaml:"name"`
	Build     string     `yaml:"build,omitempty"`
	Functions []Function `yaml:"functions"`
}

type Function struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Definition  string `yaml:"definition"`
}

// New builds a document from any segment listing. Each document gets a
// fresh build id.
func New(name string, src asm.Source) *Document {
	doc := &Document{StackVM: StackVM{
		Version: Version,
		Name:    name,
		Build:   ulid.Make().String(),
	}}
	for _, fn := range src.Names() {
		code := src.Code(fn)
		def := strings.Join(code, "\n")
		if len(code) > 0 {
			def += "\n"
		}
		doc.StackVM.Functions = append(doc.StackVM.Functions, Function{
			Name:        fn,
			Description: fn,
			Definition:  def,
		})
	}
	return doc
}

// Encode renders the document as YAML.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode stackvm document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode stackvm document: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a document and checks that it is one this package can run.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode stackvm document: %w", err)
	}
	if doc.StackVM.Version == "" {
		return nil, fmt.Errorf("decode stackvm document: missing stackvm.version")
	}
	if doc.StackVM.Version != Version {
		return nil, fmt.Errorf("decode stackvm document: unsupported version %q", doc.StackVM.Version)
	}
	if doc.StackVM.Build != "" {
		if _, err := ulid.ParseStrict(doc.StackVM.Build); err != nil {
			return nil, fmt.Errorf("decode stackvm document: bad build id: %w", err)
		}
	}
	seen := make(map[string]bool)
	for _, fn := range doc.StackVM.Functions {
		if seen[fn.Name] {
			return nil, fmt.Errorf("decode stackvm document: function %q defined twice", fn.Name)
		}
		seen[fn.Name] = true
	}
	return &doc, nil
}

// Names lists the functions in document order.
func (d *Document) Names() []string {
	names := make([]string, len(d.StackVM.Functions))
	for i, fn := range d.StackVM.Functions {
		names[i] = fn.Name
	}
	return names
}

// Code splits a function's definition into instruction lines.
func (d *Document) Code(name string) []string {
	for _, fn := range d.StackVM.Functions {
		if fn.Name == name {
			return strings.Split(strings.TrimRight(fn.Definition, "\n"), "\n")
		}
	}
	return nil
}
