package dataset

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ParseEncoding resolves a character-set name. UTF-8 input is read without
// re-encoding once its byte order mark is stripped, and the loader rejects
// bytes that are not valid UTF-8. The single-byte Western encodings are
// transcoded.
func ParseEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// isUTF8 reports whether input in enc is passed through as raw bytes.
// A nil encoding means UTF-8.
func isUTF8(enc encoding.Encoding) bool {
	return enc == nil || enc == unicode.UTF8 || enc == unicode.UTF8BOM
}

func decodeReader(r io.Reader, enc encoding.Encoding) io.Reader {
	if isUTF8(enc) {
		// The x/text UTF-8 decoders replace invalid bytes with U+FFFD, so only
		// the BOM is handled here and validation happens per field.
		return transform.NewReader(r, unicode.BOMOverride(transform.Nop))
	}
	return enc.NewDecoder().Reader(r)
}
