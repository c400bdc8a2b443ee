// Package ir provides the intermediate representation (IR) shared by all
// format decoders and encoders.
//
// Every decoded document is a tree of ir.Node values, a recursive tagged
// union covering null, booleans, integers, floats, strings, binary data,
// arrays, and objects. Object entries live in the parallel Fields/Values
// slices, preserving document key order end-to-end; array elements live in
// Values.
//
// A document stream is a []*ir.Node in input order. Single-document
// formats decode to a stream of length one.
//
// Nodes carry no behavior beyond construction, structural comparison
// (Compare, Equal), and cloning. A node tree is built entirely by one
// decode and consumed entirely by one encode; it is never shared across
// goroutines.
package ir
