// Command vbotrace runs a Lua script against a vbo context and prints the
// draws it produces.
//
// Scripts drive the context through the gl table:
//
//	gl.NewList(1, "compile")
//	gl.Begin("triangles")
//	gl.Color(1, 0, 0)
//	gl.Vertex(0, 0)
//	gl.Vertex(1, 0)
//	gl.Vertex(0, 1)
//	gl.End()
//	gl.EndList()
//	gl.CallList(1)
//
// Draws are captured on the CPU, so the trace is the same on every machine.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/gogpu/vbo"
	"github.com/gogpu/vbo/backend/capture"
)

type traceOptions struct {
	config     string
	primitives bool
	stats      bool
	color      bool
	verbose    bool
	jsonLog    bool
}

func main() {
	var (
		config     = flag.String("config", "", "YAML config file")
		primitives = flag.Bool("primitives", false, "print assembled primitives instead of draw ranges")
		stats      = flag.Bool("stats", false, "print engine statistics")
		colorFlag  = flag.String("color", "auto", "highlight output: auto, always or never")
		verbose    = flag.Bool("v", false, "log engine activity to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: vbotrace [flags] script.lua\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	color := *colorFlag == "always"
	if *colorFlag == "auto" {
		color = term.IsTerminal(int(os.Stdout.Fd()))
	}

	src, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("vbotrace: %v", err)
	}
	opts := traceOptions{
		config:     *config,
		primitives: *primitives,
		stats:      *stats,
		color:      color,
		verbose:    *verbose,
		jsonLog:    !term.IsTerminal(int(os.Stderr.Fd())),
	}
	if err := run(string(src), opts, os.Stdout, os.Stderr); err != nil {
		log.Fatalf("vbotrace: %v", err)
	}
}

// run executes script and writes the trace to out.
func run(script string, opts traceOptions, out, errOut io.Writer) error {
	if opts.verbose {
		hopts := &slog.HandlerOptions{Level: slog.LevelDebug}
		var h slog.Handler = slog.NewTextHandler(errOut, hopts)
		if opts.jsonLog {
			h = slog.NewJSONHandler(errOut, hopts)
		}
		vbo.SetLogger(slog.New(h))
		defer vbo.SetLogger(nil)
	}

	cfg := &vbo.Config{}
	if opts.config != "" {
		var err error
		if cfg, err = vbo.LoadConfig(opts.config); err != nil {
			return err
		}
	}
	caps, ok := cfg.Caps()
	if !ok {
		caps = capture.New().Caps()
	}
	// Traces always draw into the capture backend.
	cfg.Backend = ""

	b := capture.New(capture.WithCaps(caps))
	ctx, err := vbo.New(
		vbo.WithConfig(cfg),
		vbo.WithAllocator(b),
		vbo.WithDrawer(b),
		vbo.WithCaps(caps),
	)
	if err != nil {
		return err
	}
	defer ctx.Close()

	if err := runScript(ctx, script); err != nil {
		return err
	}
	ctx.Flush()

	p := &printer{w: out, color: opts.color}
	if opts.primitives {
		p.primitives(b.Primitives())
	} else {
		p.draws(b.Draws())
	}
	if opts.stats {
		p.stats(ctx.Stats(), b)
	}
	return p.err
}
