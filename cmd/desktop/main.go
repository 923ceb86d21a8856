package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"mezcal/pkg/asm"
	"mezcal/pkg/compiler"
	"mezcal/pkg/utils"
	"mezcal/pkg/vm"
)

const (
	screenWidth   = 640
	screenHeight  = 480
	charHeight    = 16
	stepsPerFrame = 10000
	maxLines      = screenHeight/charHeight - 1 // last row is the input line
)

// console keeps the tail of everything the program printed.
type console struct {
	mu      sync.Mutex
	lines   []string
	partial string
}

func (c *console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text := c.partial + string(p)
	parts := strings.Split(text, "\n")
	c.partial = parts[len(parts)-1]
	c.lines = append(c.lines, parts[:len(parts)-1]...)
	if over := len(c.lines) - maxLines; over > 0 {
		c.lines = c.lines[over:]
	}
	return len(p), nil
}

func (c *console) Println(s string) {
	fmt.Fprintln(c, s)
}

func (c *console) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines), len(c.lines)+1)
	copy(out, c.lines)
	if c.partial != "" {
		out = append(out, c.partial)
	}
	return out
}

// keyboard collects typed characters and hands a line to readln once Enter
// is pressed.
type keyboard struct {
	typing []rune
	ready  []string
}

func (k *keyboard) PushKey(r rune) {
	switch r {
	case '\n':
		k.ready = append(k.ready, string(k.typing))
		k.typing = k.typing[:0]
	case '\b':
		if len(k.typing) > 0 {
			k.typing = k.typing[:len(k.typing)-1]
		}
	default:
		k.typing = append(k.typing, r)
	}
}

func (k *keyboard) HasLine() bool { return len(k.ready) > 0 }

func (k *keyboard) Typing() string { return string(k.typing) }

func (k *keyboard) ReadLine() (string, error) {
	if len(k.ready) == 0 {
		return "", vm.ErrNoInput
	}
	line := k.ready[0]
	k.ready = k.ready[1:]
	return line, nil
}

type Game struct {
	vm      *vm.VM
	out     *console
	keys    *keyboard
	err     error
	stopped bool
}

func newGame(prog *asm.Program) *Game {
	g := &Game{out: &console{}, keys: &keyboard{}}
	g.vm = vm.New(prog, vm.WithOutput(g.out), vm.WithInput(g.keys), vm.WithMaxSteps(0))
	return g
}

func (g *Game) Update() error {
	for _, r := range ebiten.AppendInputChars(nil) {
		g.keys.PushKey(r)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.keys.PushKey('\n')
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.keys.PushKey('\b')
	}
	g.tick()
	return nil
}

// tick runs the machine for up to one frame's worth of steps. A machine
// waiting for input is only stepped once a line is ready.
func (g *Game) tick() {
	if g.stopped {
		return
	}
	for i := 0; i < stepsPerFrame; i++ {
		if g.vm.Halted {
			g.stop(nil)
			return
		}
		if g.vm.Waiting && !g.keys.HasLine() {
			return
		}
		if err := g.vm.Step(); err != nil {
			g.stop(err)
			return
		}
	}
}

func (g *Game) stop(err error) {
	g.stopped = true
	g.err = err
	if err != nil {
		g.out.Println("error: " + err.Error())
		return
	}
	g.out.Println("[program finished]")
}

func (g *Game) Draw(screen *ebiten.Image) {
	lines := g.out.Lines()
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, 4, i*charHeight)
	}
	if g.vm.Waiting {
		ebitenutil.DebugPrintAt(screen, "? "+g.keys.Typing()+"_", 4, maxLines*charHeight)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	showAsm := flag.Bool("show-asm", false, "print the generated assembly before running")
	shake := flag.String("shake", "single", "dead function removal: single, reachable or none")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("usage: desktop [-show-asm] [-shake mode] file.mez")
	}

	src, baseDir, err := utils.ReadSource(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}
	mode, err := compiler.ParseShakeMode(*shake)
	if err != nil {
		log.Fatal(err)
	}

	res, err := compiler.Compile(src, baseDir, compiler.WithShake(mode))
	if err != nil {
		log.Fatalf("Compilation failed: %v", err)
	}
	if *showAsm {
		fmt.Print("Generated Assembly:\n", res.Segments, "\n")
	}
	prog, err := asm.Assemble(res.Segments)
	if err != nil {
		log.Fatalf("Assembly failed: %v", err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Mezcal Desktop")

	if err := ebiten.RunGame(newGame(prog)); err != nil {
		log.Fatal(err)
	}
}
