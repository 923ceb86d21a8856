// Package natives is the table of built-in functions callable from Mezcal
// programs. The compiler uses it to decide which bare names are calls, the
// virtual machine to run them.
package natives

import (
	"fmt"
	"math"
	"sort"

	"mezcal/pkg/value"
)

// Env is what a native function may touch outside its arguments.
type Env interface {
	WriteLine(s string) error
	ReadLine() (string, error)
	Clock() float64 // milliseconds since the Unix epoch
	Random() float64
}

// Func receives exactly Arity arguments, first argument first.
type Func func(env Env, args []value.Value) (value.Value, error)

type Native struct {
	Name  string
	Arity int
	Fn    Func
}

var table = map[string]Native{}

func register(name string, arity int, fn Func) {
	table[name] = Native{Name: name, Arity: arity, Fn: fn}
}

func constant(name string, f float64) {
	register(name, 0, func(Env, []value.Value) (value.Value, error) { return value.Num(f), nil })
}

func unary(name string, fn func(float64) float64) {
	register(name, 1, func(_ Env, args []value.Value) (value.Value, error) {
		x, err := number(name, args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.Num(fn(x)), nil
	})
}

func number(fn string, v value.Value) (float64, error) {
	if v.Kind != value.Number {
		return 0, fmt.Errorf("%s expects a number, got %q", fn, v.String())
	}
	return v.Num, nil
}

func init() {
	constant("pi", math.Pi)
	constant("e", math.E)
	register("clock", 0, func(env Env, _ []value.Value) (value.Value, error) {
		return value.Num(env.Clock()), nil
	})
	register("random", 0, func(env Env, _ []value.Value) (value.Value, error) {
		return value.Num(env.Random()), nil
	})

	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)
	unary("abs", math.Abs)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("log", math.Log10)
	unary("ln", math.Log)
	unary("round", func(x float64) float64 { return math.Floor(x + 0.5) })
	unary("sqrt", math.Sqrt)
	unary("cbrt", math.Cbrt)

	register("pow", 2, func(_ Env, args []value.Value) (value.Value, error) {
		x, err := number("pow", args[0])
		if err != nil {
			return value.Value{}, err
		}
		y, err := number("pow", args[1])
		if err != nil {
			return value.Value{}, err
		}
		return value.Num(math.Pow(x, y)), nil
	})

	// writeln hands its argument back so the caller's pop stays balanced.
	register("writeln", 1, func(env Env, args []value.Value) (value.Value, error) {
		return args[0], env.WriteLine(args[0].String())
	})
	register("readln", 0, func(env Env, _ []value.Value) (value.Value, error) {
		line, err := env.ReadLine()
		if err != nil {
			return value.Value{}, err
		}
		return value.FromInput(line), nil
	})

	register("str.compare", 2, func(_ Env, args []value.Value) (value.Value, error) {
		return value.Num(float64(value.Compare(args[0], args[1]))), nil
	})
	register("str.concat", 2, func(_ Env, args []value.Value) (value.Value, error) {
		return value.Str(args[0].String() + args[1].String()), nil
	})
}

// Lookup finds a native by name.
func Lookup(name string) (Native, bool) {
	n, ok := table[name]
	return n, ok
}

// IsZeroArity reports whether name is a native taking no arguments.
func IsZeroArity(name string) bool {
	n, ok := table[name]
	return ok && n.Arity == 0
}

// Names returns every native name, sorted.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
