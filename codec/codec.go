// Package codec implements the LSP wire framing of spec.md §4.A:
// "Content-Length: N\r\n\r\n<N bytes of UTF-8 JSON>", with resynchronization
// on malformed input.
package codec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/cmyser/lspcore/internal/xio"
)

var contentLengthAnchor = []byte("Content-Length:")

// DecodeError is returned for a single malformed frame. The codec has
// already resynchronized (or attempted to) by the time this is returned;
// callers should log it and keep reading, per spec.md §4.A ("Until
// resynchronization succeeds the codec reports a decode error per failed
// attempt without losing already-buffered bytes").
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "codec: " + e.Reason }

// Reader decodes frames from a byte stream, one at a time.
type Reader struct {
	br  *bufio.Reader
	log zerolog.Logger
}

func NewReader(r io.Reader, log zerolog.Logger) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*1024), log: xio.Scoped(log, "codec")}
}

// ReadMessage reads exactly one frame and returns its body. It returns
// io.EOF when the underlying stream is exhausted cleanly between frames.
// A malformed frame yields a *DecodeError; the caller should call
// ReadMessage again to resume after resynchronization.
//
// Header lines are located with peekLine (non-destructive) and only
// Discarded once recognized as a legitimate "Content-Length"/"Content-Type"
// header or the blank CRLF terminator. A line that fails to parse as one of
// those is left untouched in the buffer before resync runs, so an anchor
// embedded inside that same garbled line (spec.md §4.A's resynchronization
// scenario) is still there for resync's scan to find, instead of having
// already been consumed on the way to discovering the line was bad.
func (r *Reader) ReadMessage() (json.RawMessage, error) {
	contentLength := -1
	sawAnyHeader := false

	for {
		line, err := r.peekLine()
		if err != nil {
			if errors.Is(err, io.EOF) && !sawAnyHeader && len(line) == 0 {
				return nil, io.EOF
			}
			return nil, err
		}
		trimmed := strings.TrimRight(string(line), "\r\n")
		if trimmed == "" {
			if _, err := r.br.Discard(len(line)); err != nil {
				return nil, err
			}
			break // CRLF CRLF: end of headers
		}

		name, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			return nil, r.resync(&DecodeError{Reason: fmt.Sprintf("malformed header line %q", trimmed)})
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		switch name {
		case "Content-Length":
			if _, err := r.br.Discard(len(line)); err != nil {
				return nil, err
			}
			sawAnyHeader = true
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, r.resync(&DecodeError{Reason: fmt.Sprintf("non-numeric Content-Length %q", value)})
			}
			contentLength = n
		case "Content-Type":
			if _, err := r.br.Discard(len(line)); err != nil {
				return nil, err
			}
			sawAnyHeader = true
			if !strings.Contains(value, "application/vscode-jsonrpc") || !strings.Contains(value, "charset=utf-8") {
				return nil, r.resync(&DecodeError{Reason: fmt.Sprintf("unsupported Content-Type %q", value)})
			}
		default:
			return nil, r.resync(&DecodeError{Reason: fmt.Sprintf("unrecognized header %q", name)})
		}
	}

	if contentLength < 0 {
		return nil, r.resync(&DecodeError{Reason: "missing Content-Length header"})
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r.br, body); err != nil {
		return nil, err
	}

	if !utf8.Valid(body) {
		return nil, r.resync(&DecodeError{Reason: "body is not valid UTF-8"})
	}
	if !json.Valid(body) {
		return nil, r.resync(&DecodeError{Reason: "body is not valid JSON"})
	}

	return json.RawMessage(body), nil
}

// peekLine returns the next line, trailing newline included, without
// advancing the reader; the caller Discards it once it decides the line is
// worth consuming. Growth mirrors resync's: peek what's already buffered,
// and if no newline turned up yet, Peek one more byte to force a refill and
// retry, so a line only ever costs one scan per byte actually buffered for
// it.
func (r *Reader) peekLine() ([]byte, error) {
	scanned := 0
	for {
		buffered := r.br.Buffered()
		chunk, _ := r.br.Peek(buffered)
		if idx := bytes.IndexByte(chunk[scanned:], '\n'); idx >= 0 {
			return chunk[:scanned+idx+1], nil
		}
		scanned = len(chunk)
		if _, err := r.br.Peek(buffered + 1); err != nil {
			return chunk, err
		}
	}
}

// resync scans forward for the next "Content-Length:" occurrence so the
// next ReadMessage call can resume parsing there. Each buffered chunk is
// searched once with bytes.Index (a single-pass substring search); only the
// unmatched tail that could still be a split match is ever re-scanned, so
// total work is linear in the number of discarded bytes, per spec.md §4.A.
// It always returns err so callers can propagate the triggering decode
// error to ReadMessage's caller in one motion.
func (r *Reader) resync(err error) error {
	discarded := 0
	anchorTail := len(contentLengthAnchor) - 1

	for {
		chunk, _ := r.br.Peek(r.br.Buffered())

		if idx := bytes.Index(chunk, contentLengthAnchor); idx >= 0 {
			if _, discardErr := r.br.Discard(idx); discardErr != nil {
				return err
			}
			discarded += idx
			r.log.Warn().Int("discarded_bytes", discarded).Msg("resync: found Content-Length anchor, resuming")
			return err
		}

		// No match yet. Discard everything except a tail long enough to
		// catch an anchor that straddles the next refill boundary, then
		// pull in more bytes and retry; each byte is discarded at most
		// once, so total work is linear in the bytes skipped.
		keep := anchorTail
		if keep > len(chunk) {
			keep = len(chunk)
		}
		discardNow := len(chunk) - keep
		if discardNow > 0 {
			if _, discardErr := r.br.Discard(discardNow); discardErr != nil {
				return err
			}
			discarded += discardNow
		}

		if _, growErr := r.br.Peek(r.br.Buffered() + 1); growErr != nil {
			r.log.Warn().Int("discarded_bytes", discarded).Msg("resync: stream ended before Content-Length found")
			return err
		}
	}
}
