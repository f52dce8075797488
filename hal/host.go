package hal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

type hostHAL struct {
	logger *hostLogger
	fb     *hostFramebuffer
	kbd    *hostKeyboard
	t      *hostTime
}

// New returns a host HAL with a width×height RGB888 framebuffer. Logs go to
// stderr.
func New(width, height int) HAL {
	return newHost(width, height, os.Stderr)
}

func newHost(width, height int, logw io.Writer) *hostHAL {
	return &hostHAL{
		logger: &hostLogger{w: logw},
		fb:     newHostFramebuffer(width, height),
		kbd:    newHostKeyboard(),
		t:      newHostTime(),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Input() Input     { return hostInput{kbd: h.kbd} }
func (h *hostHAL) Time() Time       { return h.t }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostInput struct {
	kbd *hostKeyboard
}

func (in hostInput) Keyboard() Keyboard { return in.kbd }

// NewLogger returns a Logger writing to w. Lines are never interleaved.
func NewLogger(w io.Writer) Logger {
	return &hostLogger{w: w}
}

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

// LogWriter adapts a Logger to io.Writer, one log line per written line.
// A trailing newline is dropped; slog handlers write one record per Write.
type LogWriter struct {
	L Logger
}

func (w LogWriter) Write(p []byte) (int, error) {
	n := len(p)
	p = bytes.TrimSuffix(p, []byte{'\n'})
	for _, line := range bytes.Split(p, []byte{'\n'}) {
		w.L.WriteLineBytes(line)
	}
	return n, nil
}
