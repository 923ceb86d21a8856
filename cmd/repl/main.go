package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"mezcal/pkg/asm"
	"mezcal/pkg/compiler"
	"mezcal/pkg/natives"
	"mezcal/pkg/vm"
)

const (
	banner      = "Mezcal REPL. Type :help for commands, :quit to exit."
	historyFile = ".mezcal_history"
	promptMain  = "mezcal> "
	promptCont  = "   ...> "
	promptInput = "? "
)

const help = `:quit, :q        leave
:help, :h        this text
:asm             toggle printing each unit's assembly
:functions       list the functions defined so far
:natives         list the built-in functions
:reset           forget every variable and function`

// lineInput feeds readln from the terminal.
type lineInput struct {
	ln *liner.State
}

func (in lineInput) ReadLine() (string, error) {
	line, err := in.ln.Prompt(promptInput)
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	return line, err
}

// session is everything that survives from one unit to the next.
type session struct {
	machine   *vm.VM
	functions map[string]int
	showAsm   bool
	baseDir   string
	opts      []vm.Option
	log       *slog.Logger
}

func newSession(baseDir string, log *slog.Logger, opts ...vm.Option) *session {
	return &session{
		functions: make(map[string]int),
		baseDir:   baseDir,
		opts:      opts,
		log:       log,
	}
}

// eval compiles one unit and runs it on the persistent machine. Functions
// declared earlier stay callable.
func (s *session) eval(src string, out io.Writer) error {
	res, err := compiler.Compile(src, s.baseDir,
		compiler.WithShake(compiler.ShakeModeNone),
		compiler.WithKnownFunctions(s.functions),
		compiler.WithLogger(s.log),
	)
	if err != nil {
		return err
	}
	if s.showAsm {
		fmt.Fprint(out, res.Segments)
	}

	prog, err := asm.Assemble(res.Segments)
	if err != nil {
		return err
	}
	if s.machine == nil {
		s.machine = vm.New(prog, s.opts...)
	} else {
		s.machine.Load(prog)
	}
	s.functions = res.Functions
	if err := s.machine.Run(); err != nil {
		return err
	}

	if v, ok := s.machine.Top(); ok {
		fmt.Fprintf(out, "= %s\n", v.Literal())
	}
	return nil
}

// command runs a :command and reports whether the REPL should stop.
func (s *session) command(cmd string, out io.Writer) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":help", ":h":
		fmt.Fprintln(out, help)
	case ":asm":
		s.showAsm = !s.showAsm
		fmt.Fprintf(out, "assembly %s\n", onOff(s.showAsm))
	case ":functions":
		names := make([]string, 0, len(s.functions))
		for name, n := range s.functions {
			names = append(names, fmt.Sprintf("%s/%d", name, n))
		}
		sort.Strings(names)
		fmt.Fprintln(out, strings.Join(names, " "))
	case ":natives":
		fmt.Fprintln(out, strings.Join(natives.Names(), " "))
	case ":reset":
		s.machine = nil
		s.functions = make(map[string]int)
	default:
		fmt.Fprintln(out, "unknown command. Type :help for a list.")
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// readUnit reads lines until they form a complete unit. A unit that fails
// only because input ran out asks for another line.
func readUnit(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		tokens, err := compiler.Lex(src)
		if err != nil {
			return src, true
		}
		if _, err := compiler.New(tokens).Compile(); compiler.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}

func main() {
	verbose := flag.Bool("v", false, "log compiler activity to stderr")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	cwd, _ := os.Getwd()
	s := newSession(cwd, log, vm.WithInput(lineInput{ln}), vm.WithOutput(os.Stdout), vm.WithLogger(log))

	for {
		src, ok := readUnit(ln)
		if !ok {
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if s.command(trimmed, os.Stdout) {
				return
			}
			continue
		}
		if err := s.eval(src, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
