package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/vbo"
	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/backend/capture"
	"github.com/gogpu/vbo/gl"
)

const (
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

// printer writes a trace, remembering the first write error.
type printer struct {
	w     io.Writer
	color bool
	err   error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) mode(m gl.Mode) string {
	if p.color {
		return ansiBold + m.String() + ansiReset
	}
	return m.String()
}

func (p *printer) dim(s string) string {
	if p.color {
		return ansiDim + s + ansiReset
	}
	return s
}

func (p *printer) draws(draws []capture.DrawCall) {
	for i, d := range draws {
		kind := "arrays"
		if d.Indexed {
			kind = "indexed"
		}
		p.printf("draw %d %s %s %d\n", i, p.mode(d.Mode), p.dim(kind), len(d.Vertices))
		for _, v := range d.Vertices {
			p.printf("  %s\n", vertex(v))
		}
	}
}

func (p *printer) primitives(prims []capture.Primitive) {
	for _, pr := range prims {
		parts := make([]string, len(pr.Vertices))
		for i, v := range pr.Vertices {
			parts[i] = vertex(v)
		}
		p.printf("%s %s\n", p.mode(pr.Mode), strings.Join(parts, " "))
	}
}

func (p *printer) stats(st vbo.Stats, b *capture.Backend) {
	p.printf("%s\n", p.dim("--"))
	p.printf("lists %d, nodes %d (%d loopback), dedup hits %d, arenas %d\n",
		st.Lists, st.Save.Nodes, st.Save.LoopbackNodes, st.Save.DedupHits, st.Save.Arenas)
	p.printf("immediate draws %d, flushes %d, wraps %d\n",
		st.Exec.Draws, st.Exec.Flushes, st.Exec.Wraps)
	p.printf("replayed %d direct, %d loopback, %d draws\n",
		st.Replay.Direct, st.Replay.Loopback, st.Replay.Draws)
	p.printf("batches %d, vertices %d, live buffers %d\n",
		b.Batches(), b.VertexCount(), b.LiveBuffers())
}

// vertex formats the position, followed by the primary color when the
// vertex carries one.
func vertex(v capture.Vertex) string {
	s := "(" + trimmed(v.Pos(), 2, f32.Vec4{0, 0, 0, 1}) + ")"
	if v.Enabled&(1<<attrib.Color0) != 0 {
		s += "|(" + trimmed(v.Attr(int(attrib.Color0)), 3, f32.Vec4{0, 0, 0, 1}) + ")"
	}
	return s
}

// trimmed prints at least n components of v, dropping trailing components
// equal to their default.
func trimmed(v f32.Vec4, n int, def f32.Vec4) string {
	end := 4
	for end > n && v[end-1] == def[end-1] {
		end--
	}
	parts := make([]string, end)
	for i := range parts {
		parts[i] = strconv.FormatFloat(float64(v[i]), 'g', -1, 32)
	}
	return strings.Join(parts, ",")
}
