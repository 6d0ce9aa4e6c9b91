// Package sms splits auto-reply text into SMS segments.
package sms

import (
	"strings"
	"unicode/utf8"
)

const (
	GSMSingleSize  = 160
	GSMPartSize    = 153
	UCS2SingleSize = 70
	UCS2PartSize   = 67
)

// Encoding is the character set a message is sent in.
type Encoding string

const (
	GSM7 Encoding = "gsm7"
	UCS2 Encoding = "ucs2"
)

// Options configures segment sizes. Zero values pick the sizes for the detected encoding.
type Options struct {
	SingleSize int
	PartSize   int
}

// Segment is one SMS part of a longer message.
type Segment struct {
	Text  string
	Index int // 1-based
	Total int
}

// Detect reports UCS2 when text holds anything outside printable ASCII plus newlines.
func Detect(text string) Encoding {
	for _, r := range text {
		if r == '\n' || r == '\r' {
			continue
		}
		if r < 0x20 || r > 0x7e {
			return UCS2
		}
	}
	return GSM7
}

func (o Options) withDefaults(enc Encoding) Options {
	single, part := GSMSingleSize, GSMPartSize
	if enc == UCS2 {
		single, part = UCS2SingleSize, UCS2PartSize
	}
	if o.SingleSize <= 0 {
		o.SingleSize = single
	}
	if o.PartSize <= 0 {
		o.PartSize = part
	}
	return o
}

// Split breaks text into segments. Text that fits one message returns a single segment;
// longer text is split on word boundaries, and words longer than a part are hard-split.
func Split(text string, opts Options) []Segment {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	opts = opts.withDefaults(Detect(text))

	if utf8.RuneCountInString(text) <= opts.SingleSize {
		return []Segment{{Text: text, Index: 1, Total: 1}}
	}

	var parts []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			parts = append(parts, string(cur))
			cur = nil
		}
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)
		if len(w) > opts.PartSize {
			flush()
			for len(w) > opts.PartSize {
				parts = append(parts, string(w[:opts.PartSize]))
				w = w[opts.PartSize:]
			}
			cur = w
			continue
		}
		switch {
		case len(cur) == 0:
			cur = w
		case len(cur)+1+len(w) <= opts.PartSize:
			cur = append(append(cur, ' '), w...)
		default:
			flush()
			cur = w
		}
	}
	flush()

	segs := make([]Segment, len(parts))
	for i, p := range parts {
		segs[i] = Segment{Text: p, Index: i + 1, Total: len(parts)}
	}
	return segs
}

// Texts returns just the segment bodies.
func Texts(segs []Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Text
	}
	return out
}
