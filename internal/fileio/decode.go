package fileio

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const sniffSize = 2048

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// legacy charsets we transcode to UTF-8; anything else is passed through.
var legacyCharsets = map[string]encoding.Encoding{
	"windows-1251": charmap.Windows1251,
	"cp1251":       charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"koi8-r":       charmap.KOI8R,
	"iso-8859-5":   charmap.ISO8859_5,
	"iso-8859-9":   charmap.ISO8859_9,
	"iso-8859-15":  charmap.ISO8859_15,
	"ibm866":       charmap.CodePage866,
}

// Decode strips a UTF-8 BOM and, when the first bytes are not valid UTF-8,
// transcodes from the charset chardet reports. It reads the first bytes of r
// immediately; a read error other than io.EOF is returned.
func Decode(r io.Reader) (io.Reader, error) {
	dec, _, err := Sniff(r)
	return dec, err
}

// Sniff is Decode that also reports the charset it settled on.
func Sniff(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffSize*2)

	peek, err := br.Peek(sniffSize)
	// Peek hands a read error over only once, so it must not be mistaken for EOF
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	atEOF := err != nil
	if bytes.HasPrefix(peek, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
		return br, "utf-8", nil
	}
	if len(peek) == 0 || looksUTF8(peek, atEOF) {
		return br, "utf-8", nil
	}

	cs := "utf-8"
	if det, err := chardet.NewTextDetector().DetectBest(peek); err == nil && det != nil {
		cs = strings.ToLower(det.Charset)
	}
	if enc, ok := legacyCharsets[cs]; ok {
		return transform.NewReader(br, enc.NewDecoder()), cs, nil
	}
	// unknown legacy charset: pass through untouched
	return br, cs, nil
}

// looksUTF8 tolerates a rune cut in half at the end of a partial sample.
func looksUTF8(b []byte, atEOF bool) bool {
	if utf8.Valid(b) {
		return true
	}
	if atEOF {
		return false
	}
	for i := 1; i < utf8.UTFMax && i < len(b); i++ {
		if utf8.Valid(b[:len(b)-i]) {
			return true
		}
	}
	return false
}
