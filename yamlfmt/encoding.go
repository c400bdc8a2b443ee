package yamlfmt

import (
	"bufio"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// newUTF8Reader re-encodes UTF-16 and UTF-32 YAML streams to UTF-8 and
// strips a leading byte order mark, neither of which the yaml library
// accepts. Detection follows the YAML 1.2 rules: a BOM when present,
// otherwise the zero-byte pattern of the first character, which the
// grammar requires to be ASCII.
func newUTF8Reader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	prefix, _ := br.Peek(4)
	enc, bom := detectEncoding(prefix)
	if enc == nil {
		if bom > 0 {
			br.Discard(bom)
		}
		return br
	}
	return transform.NewReader(br, enc.NewDecoder())
}

// detectEncoding returns the source encoding, or nil for UTF-8 along
// with the length of any UTF-8 BOM to strip.
func detectEncoding(p []byte) (encoding.Encoding, int) {
	switch {
	case len(p) >= 4 && p[0] == 0x00 && p[1] == 0x00 && p[2] == 0xFE && p[3] == 0xFF:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM), 0
	case len(p) >= 4 && p[0] == 0xFF && p[1] == 0xFE && p[2] == 0x00 && p[3] == 0x00:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM), 0
	case len(p) >= 3 && p[0] == 0xEF && p[1] == 0xBB && p[2] == 0xBF:
		return nil, 3
	case len(p) >= 2 && p[0] == 0xFE && p[1] == 0xFF:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), 0
	case len(p) >= 2 && p[0] == 0xFF && p[1] == 0xFE:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), 0
	case len(p) >= 4 && p[0] == 0x00 && p[1] == 0x00 && p[2] == 0x00 && p[3] != 0x00:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), 0
	case len(p) >= 4 && p[0] != 0x00 && p[1] == 0x00 && p[2] == 0x00 && p[3] == 0x00:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), 0
	case len(p) >= 2 && p[0] == 0x00 && p[1] != 0x00:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), 0
	case len(p) >= 2 && p[0] != 0x00 && p[1] == 0x00:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), 0
	}
	return nil, 0
}
