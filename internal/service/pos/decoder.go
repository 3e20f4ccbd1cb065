package pos

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"interceptor/internal/apperr"
)

// Decoder turns raw POS line bytes into text. UTF-8 input is validated rather than
// repaired: an invalid line is a read failure. Legacy code pages are transcoded.
type Decoder struct {
	name string
	enc  encoding.Encoding // nil for UTF-8
}

// NewDecoder resolves an encoding label such as "utf-8", "cp866" or "windows-1251".
// An empty label means UTF-8.
func NewDecoder(label string) (*Decoder, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" || label == "utf-8" || label == "utf8" {
		return &Decoder{name: "utf-8"}, nil
	}

	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("%w: unknown POS encoding %q", apperr.ErrInvalidConfig, label)
	}
	if name == "utf-8" {
		return &Decoder{name: name}, nil
	}
	return &Decoder{name: name, enc: enc}, nil
}

// Name returns the canonical encoding name.
func (d *Decoder) Name() string {
	return d.name
}

// Decode converts one raw line.
func (d *Decoder) Decode(raw []byte) (string, error) {
	if d.enc == nil {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("decode line: invalid utf-8")
		}
		return string(raw), nil
	}

	out, _, err := transform.Bytes(d.enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode line as %s: %w", d.name, err)
	}
	return string(out), nil
}
