package ftp

import (
	"bufio"
	"io"
)

// nvtASCIIReader converts the network virtual terminal line ending (CRLF)
// read from the data connection into the local line ending (LF), for
// TEXTUAL downloads.
type nvtASCIIReader struct {
	r    *bufio.Reader
	pend byte
	have bool
}

func newNVTASCIIReader(r io.Reader) *nvtASCIIReader {
	return &nvtASCIIReader{r: bufio.NewReader(r)}
}

func (r *nvtASCIIReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := 0
	if r.have {
		p[0] = r.pend
		r.have = false
		n = 1
	}
	for n < len(p) {
		b, err := r.r.ReadByte()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if b == '\r' {
			next, err := r.r.Peek(1)
			if err == nil && len(next) == 1 && next[0] == '\n' {
				_, _ = r.r.Discard(1)
				b = '\n'
			}
		}
		p[n] = b
		n++
	}
	return n, nil
}

// nvtASCIIWriter converts local line endings (LF, or CRLF passed through
// unchanged) into the network virtual terminal line ending (CRLF), for
// TEXTUAL uploads.
type nvtASCIIWriter struct {
	w    io.Writer
	last byte
}

func newNVTASCIIWriter(w io.Writer) *nvtASCIIWriter {
	return &nvtASCIIWriter{w: w}
}

func (w *nvtASCIIWriter) Write(p []byte) (int, error) {
	buf := make([]byte, 0, len(p)+len(p)/8)
	for i := 0; i < len(p); i++ {
		b := p[i]
		if b == '\n' && w.last != '\r' {
			buf = append(buf, '\r', '\n')
		} else {
			buf = append(buf, b)
		}
		w.last = b
	}
	if _, err := w.w.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}
