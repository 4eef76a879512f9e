// Package xio holds small io and logging adapter helpers shared by codec
// and lspserver (and reused anywhere else in lspcore that wants the same
// texture), so the "tag every component" idiom stays in one place instead
// of being hand-rolled at every call site.
package xio

import (
	"io"

	"github.com/rs/zerolog"
)

// Scoped returns log with a "component" field attached, the shape every
// constructor in lspcore uses to tag its own log lines (codec's "codec",
// the driver's "driver", and so on).
func Scoped(log zerolog.Logger, component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// ReadWriteCloser joins a separately-owned Reader, Writer, and Closer into
// a single io.ReadWriteCloser, the shape stdio (os.Stdin/os.Stdout, two
// independent files with no joint Close) needs wherever something wants
// one duplex handle instead of a pair.
type ReadWriteCloser struct {
	io.Reader
	io.Writer
	io.Closer
}

// nopCloser is a Closer whose Close does nothing.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewReadWriteCloser combines r and w into one io.ReadWriteCloser. Close
// closes both sides in turn and returns the first error, if any.
func NewReadWriteCloser(r io.Reader, w io.Writer) ReadWriteCloser {
	rc, rOk := r.(io.Closer)
	wc, wOk := w.(io.Closer)
	if !rOk && !wOk {
		return ReadWriteCloser{Reader: r, Writer: w, Closer: nopCloser{}}
	}
	return ReadWriteCloser{Reader: r, Writer: w, Closer: &dualCloser{r: rc, rOk: rOk, w: wc, wOk: wOk}}
}

type dualCloser struct {
	r   io.Closer
	rOk bool
	w   io.Closer
	wOk bool
}

func (d *dualCloser) Close() error {
	var first error
	if d.rOk {
		if err := d.r.Close(); err != nil {
			first = err
		}
	}
	if d.wOk {
		if err := d.w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
