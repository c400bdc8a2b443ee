// Package stream defines the structural event model connecting decoders
// to encoders.
//
// A decoder is a stream.Source: it produces a lazy, single-pass sequence
// of events (document boundaries, container begin/end pairs, keys, and
// scalar values) terminated by io.EOF. An encoder is a stream.Sink. The
// transcoding pipeline either pumps events straight across (streaming
// strategy) or materializes them into ir.Node trees first (buffered
// strategy); both paths produce identical events and therefore identical
// output bytes.
//
// State validates event grammar and enforces the nesting depth limit on
// both sides of the pipe.
package stream
