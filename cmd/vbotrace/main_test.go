package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const triangleList = `
gl.NewList(1, "compile")
gl.Begin("triangles")
gl.Color(1, 0, 0)
gl.Vertex(0, 0)
gl.Vertex(1, 0)
gl.Vertex(0, 1)
gl.End()
gl.EndList()
assert(gl.IsList(1))
gl.CallList(1)
gl.Begin("lines")
gl.Vertex(0, 0)
gl.Vertex(1, 1)
gl.End()
assert(gl.GetError() == "NO_ERROR")
`

func trace(t *testing.T, script string, opts traceOptions) string {
	t.Helper()
	var out, errOut bytes.Buffer
	if err := run(script, opts, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String()
}

func TestTracePrimitives(t *testing.T) {
	got := trace(t, triangleList, traceOptions{primitives: true})
	want := "TRIANGLES (0,0)|(1,0,0) (1,0)|(1,0,0) (0,1)|(1,0,0)\n" +
		"LINES (0,0) (1,1)\n"
	if got != want {
		t.Errorf("trace =\n%s\nwant\n%s", got, want)
	}
}

func TestTraceDraws(t *testing.T) {
	got := trace(t, triangleList, traceOptions{})
	for _, want := range []string{"draw 0 TRIANGLES", "draw 1 LINES arrays 2", "  (1,1)\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("trace missing %q:\n%s", want, got)
		}
	}
}

func TestTraceColorAndStats(t *testing.T) {
	got := trace(t, triangleList, traceOptions{primitives: true, stats: true, color: true})
	for _, want := range []string{ansiBold + "TRIANGLES" + ansiReset, "lists 1, nodes 1", "replayed 1 direct"} {
		if !strings.Contains(got, want) {
			t.Errorf("trace missing %q:\n%s", want, got)
		}
	}
}

func TestTraceConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vbo.yaml")
	cfg := "dedup: true\nsupported_modes: [points, lines, triangles]\n"
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	script := `
gl.NewList(1)
gl.Begin("quads")
for _, v in ipairs({{0, 0}, {1, 0}, {1, 1}, {0, 1}}) do gl.Vertex(v[1], v[2]) end
gl.End()
gl.EndList()
gl.CallList(1)
`
	got := trace(t, script, traceOptions{config: path, primitives: true})
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d primitives, want 2:\n%s", len(lines), got)
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "TRIANGLES ") {
			t.Errorf("primitive %q, want TRIANGLES", l)
		}
	}
}

func TestTraceErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		opts   traceOptions
		want   string
	}{
		{"unknown mode", `gl.Begin("hexagons")`, traceOptions{}, "unknown primitive mode"},
		{"vertex arity", `gl.Vertex(1)`, traceOptions{}, "expected 2 to 4 numbers"},
		{"list mode", `gl.NewList(1, "later")`, traceOptions{}, "unknown list mode"},
		{"syntax", `gl.Begin(`, traceOptions{}, "script"},
		{"missing config", ``, traceOptions{config: "/nonexistent/vbo.yaml"}, "no such file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			err := run(tt.script, tt.opts, &out, &errOut)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("run() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestTraceVerbose(t *testing.T) {
	tests := []struct {
		name string
		json bool
		want string
	}{
		{"text", false, `msg="vbo: list compiled"`},
		{"json", true, `"msg":"vbo: list compiled"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			if err := run(triangleList, traceOptions{verbose: true, jsonLog: tt.json}, &out, &errOut); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(errOut.String(), tt.want) {
				t.Errorf("log missing %s:\n%s", tt.want, errOut.String())
			}
		})
	}
}
