// Package transcode converts the legacy single-byte encoded extract into UTF-8
// text.
//
// The extract is published as Windows-1252. The encoding is assumed, never
// detected: if upstream switches encodings the decoded text will be wrong
// rather than rejected. Decoding is total over byte values, so the reader
// never fails on malformed input; the five positions cp1252 leaves undefined
// (0x81, 0x8D, 0x8F, 0x90, 0x9D) decode to the matching C1 control runes.
package transcode

import (
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding is the code page the extract is assumed to use.
var Encoding encoding.Encoding = charmap.Windows1252

// NewReader wraps r so that reads yield UTF-8 decoded from Encoding.
func NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, Encoding.NewDecoder())
}

// String decodes b in one shot.
func String(b []byte) string {
	out, _, err := transform.Bytes(Encoding.NewDecoder(), b)
	if err != nil {
		// Single-byte charmap decoders do not fail; keep the raw bytes if one does.
		return string(b)
	}
	return string(out)
}
