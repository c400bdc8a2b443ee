// Package xt translates structured documents between serialized data
// formats. The builtin set covers JSON, YAML, TOML and MessagePack;
// additional formats plug in through the format registry. Translation
// preserves document order, mapping key order, and numeric exactness,
// and streams wherever both sides allow it.
package xt

import (
	"io"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/jsonfmt"
	"github.com/xt-format/go-xt/msgpackfmt"
	"github.com/xt-format/go-xt/tomlfmt"
	"github.com/xt-format/go-xt/transcode"
	"github.com/xt-format/go-xt/yamlfmt"
)

// Builtin returns a registry with the four builtin formats registered.
func Builtin() *format.Registry {
	reg := format.NewRegistry()
	for _, e := range []*format.Entry{
		jsonfmt.Entry(),
		yamlfmt.Entry(),
		tomlfmt.Entry(),
		msgpackfmt.Entry(),
	} {
		if err := reg.Register(e); err != nil {
			// Builtin entries have fixed, disjoint names.
			panic(err)
		}
	}
	return reg
}

// NewTranslator binds a destination writer and format name against the
// builtin registry.
func NewTranslator(w io.Writer, to string, opts ...transcode.Option) (*transcode.Translator, error) {
	return transcode.NewTranslator(Builtin(), w, to, opts...)
}

// TranslateSlice translates one in-memory input to w. An empty from
// name triggers format detection.
func TranslateSlice(w io.Writer, data []byte, from, to string) error {
	t, err := NewTranslator(w, to)
	if err != nil {
		return err
	}
	return t.Translate(transcode.SliceInput(data), from)
}

// TranslateReader translates one streaming input to w. An empty from
// name triggers format detection.
func TranslateReader(w io.Writer, r io.Reader, from, to string) error {
	t, err := NewTranslator(w, to)
	if err != nil {
		return err
	}
	return t.Translate(transcode.ReaderInput(r), from)
}
