// Package msgpackfmt implements MessagePack decoding and encoding for
// the transcoding engine. Decoding streams event by event; encoding
// streams at document granularity, since composite type-length markers
// require element counts up front. Output always uses minimal-width
// framing, which downstream consumers may rely on.
package msgpackfmt

import (
	"io"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/stream"
)

// Option configures MessagePack decoding.
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

// Entry returns the registry entry for MessagePack.
func Entry(opts ...Option) *format.Entry {
	return &format.Entry{
		Format:  format.Msgpack,
		Aliases: []string{"m", "messagepack"},
		Caps: format.Capabilities{
			StreamingDecode: true,
			StreamingEncode: true,
			MultiDocument:   true,
			Strictness:      format.Strict,
		},
		NewDecoder: func(r io.Reader) format.Decoder { return NewDecoder(r, opts...) },
		NewEncoder: func(w io.Writer) format.Encoder { return NewEncoder(w, opts...) },
	}
}
