package ftp

import (
	"bufio"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// defaultCharsetName is the control channel's encoding before a UTF8
// feature probe succeeds. ISO-8859-1 is the historical default of the
// reference FTP clients this library follows: commands are pure ASCII, but
// filenames and reply text may contain high bytes before a server
// advertises UTF8 support.
const defaultCharsetName = "ISO-8859-1"

// utf8CharsetName is switched to after a successful "OPTS UTF8 ON".
const utf8CharsetName = "UTF-8"

// charsetCodec is the swappable encode/decode pair sitting behind the
// control channel's reader and writer. It is rewrapped atomically (under
// the control channel's wire lock) when the session negotiates UTF-8.
type charsetCodec struct {
	name string
	enc  encoding.Encoding
}

func newCharsetCodec(name string) (*charsetCodec, error) {
	enc, err := lookupCharset(name)
	if err != nil {
		return nil, err
	}
	return &charsetCodec{name: name, enc: enc}, nil
}

func lookupCharset(name string) (encoding.Encoding, error) {
	switch name {
	case "", defaultCharsetName:
		return charmap.ISO8859_1, nil
	case utf8CharsetName:
		return unicode.UTF8, nil
	case "ASCII", "US-ASCII":
		return encoding.Nop, nil
	default:
		return nil, &IllegalStateError{Op: "charset", Reason: "unsupported charset " + name}
	}
}

// wrapReader returns a reader that decodes bytes read from r using the
// codec's charset into UTF-8 (Go's native string encoding).
func (c *charsetCodec) wrapReader(r io.Reader) *bufio.Reader {
	return bufio.NewReader(transform.NewReader(r, c.enc.NewDecoder()))
}

// wrapWriter returns a writer that encodes UTF-8 text written to it into
// the codec's charset before it reaches w.
func (c *charsetCodec) wrapWriter(w io.Writer) io.Writer {
	return transform.NewWriter(w, c.enc.NewEncoder())
}
