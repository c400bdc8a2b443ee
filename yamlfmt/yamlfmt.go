// Package yamlfmt implements YAML decoding and encoding for the
// transcoding engine, including multi-document streams, anchors and
// aliases, and the !!binary scalar type. UTF-16 and UTF-32 inputs are
// re-encoded before parsing. Every output document starts with a `---`
// marker so documents concatenate unambiguously.
package yamlfmt

import (
	"io"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/stream"
)

// Option configures YAML decoding.
type Option func(*options)

type options struct {
	maxDepth int
}

func newOptions(opts []Option) *options {
	o := &options{maxDepth: stream.DefaultMaxDepth}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMaxDepth overrides the decoder's container nesting limit.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// Entry returns the registry entry for YAML.
func Entry(opts ...Option) *format.Entry {
	return &format.Entry{
		Format:  format.YAML,
		Aliases: []string{"y", "yml"},
		Caps: format.Capabilities{
			StreamingDecode: true,
			StreamingEncode: true,
			MultiDocument:   true,
			Strictness:      format.Permissive,
		},
		NewDecoder: func(r io.Reader) format.Decoder { return NewDecoder(r, opts...) },
		NewEncoder: func(w io.Writer) format.Encoder { return NewEncoder(w, opts...) },
	}
}
