// Package detect infers an input's format by trial decoding.
package detect

import (
	"errors"
	"io"

	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/xt-format/go-xt/debug"
	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/ir"
	"github.com/xt-format/go-xt/jsonfmt"
	"github.com/xt-format/go-xt/stream"
	"github.com/xt-format/go-xt/tomlfmt"
	"github.com/xt-format/go-xt/yamlfmt"
)

// ErrUnknown reports an input no trial decode accepted.
var ErrUnknown = errors.New("unable to detect input format")

// Input determines the format of an input. open must return a fresh
// reader positioned at the start of the input on each call; a trial may
// consume any amount of it.
//
// The trial order matters. MessagePack goes first on its unambiguous
// collection markers, which no text format's first byte collides with.
// JSON precedes YAML because JSON documents are valid YAML. YAML only
// claims collections: nearly any text parses as a YAML scalar, which
// would shadow TOML.
func Input(open func() io.Reader) (format.Format, error) {
	f, err := sniff(open)
	if err == nil && debug.Detect() {
		debug.Logf("detect: %s", f)
	}
	return f, err
}

func sniff(open func() io.Reader) (format.Format, error) {
	if isMsgpackCollection(open()) {
		return format.Msgpack, nil
	}
	if trial(jsonfmt.NewDecoder(open()), false) {
		return format.JSON, nil
	}
	if trial(yamlfmt.NewDecoder(open()), true) {
		return format.YAML, nil
	}
	if trial(tomlfmt.NewDecoder(open()), false) {
		return format.TOML, nil
	}
	return "", ErrUnknown
}

// isMsgpackCollection reports whether the first byte is a MessagePack
// map or array marker.
func isMsgpackCollection(r io.Reader) bool {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false
	}
	c := b[0]
	switch {
	case msgpcode.IsFixedMap(c), msgpcode.IsFixedArray(c):
		return true
	case c == msgpcode.Map16, c == msgpcode.Map32,
		c == msgpcode.Array16, c == msgpcode.Array32:
		return true
	}
	return false
}

// trial accepts the input if its first document decodes, optionally
// requiring the document to be a collection.
func trial(dec stream.Source, collectionsOnly bool) bool {
	doc, err := stream.NextDocument(dec)
	if err != nil {
		return false
	}
	if collectionsOnly {
		return doc.Type == ir.ObjectType || doc.Type == ir.ArrayType
	}
	return true
}
