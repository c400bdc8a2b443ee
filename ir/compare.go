package ir

import (
	"bytes"
	"cmp"
	"strings"
)

// Equal reports structural equality of two nodes. Two integer nodes are
// equal when their decimal values are equal regardless of whether they are
// stored in Int64 or Number form.
func Equal(a, b *Node) bool {
	return Compare(a, b) == 0
}

// Compare returns an integer comparing two nodes.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
func Compare(a, b *Node) int {
	if a == b {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	rankA := rank(a.Type)
	rankB := rank(b.Type)
	if rankA != rankB {
		return cmp.Compare(rankA, rankB)
	}

	switch a.Type {
	case NullType:
		return 0
	case BoolType:
		if a.Bool == b.Bool {
			return 0
		}
		if !a.Bool {
			return -1
		}
		return 1
	case IntType:
		return compareInts(a, b)
	case FloatType:
		return cmp.Compare(*a.Float64, *b.Float64)
	case StringType:
		return strings.Compare(a.String, b.String)
	case BinaryType:
		return bytes.Compare(a.Bytes, b.Bytes)
	case ArrayType:
		return compareArrays(a, b)
	case ObjectType:
		return compareObjects(a, b)
	}
	return 0
}

// rank returns the sorting rank of a type.
// Order: Null < Bool < Int < Float < String < Binary < Array < Object
func rank(t Type) int {
	switch t {
	case NullType:
		return 0
	case BoolType:
		return 1
	case IntType:
		return 2
	case FloatType:
		return 3
	case StringType:
		return 4
	case BinaryType:
		return 5
	case ArrayType:
		return 6
	case ObjectType:
		return 7
	}
	return 100
}

func compareInts(a, b *Node) int {
	if a.Int64 != nil && b.Int64 != nil {
		return cmp.Compare(*a.Int64, *b.Int64)
	}
	return compareDecimal(a.NumberText(), b.NumberText())
}

// compareDecimal compares two decimal integer strings numerically without
// a width limit.
func compareDecimal(a, b string) int {
	negA := strings.HasPrefix(a, "-")
	negB := strings.HasPrefix(b, "-")
	if negA != negB {
		if negA {
			return -1
		}
		return 1
	}
	a = strings.TrimPrefix(strings.TrimPrefix(a, "-"), "+")
	b = strings.TrimPrefix(strings.TrimPrefix(b, "-"), "+")
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	res := 0
	switch {
	case len(a) != len(b):
		res = cmp.Compare(len(a), len(b))
	default:
		res = strings.Compare(a, b)
	}
	if negA {
		res = -res
	}
	return res
}

func compareArrays(a, b *Node) int {
	n := min(len(a.Values), len(b.Values))
	for i := 0; i < n; i++ {
		if c := Compare(a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.Values), len(b.Values))
}

func compareObjects(a, b *Node) int {
	n := min(len(a.Fields), len(b.Fields))
	for i := 0; i < n; i++ {
		if c := Compare(a.Fields[i], b.Fields[i]); c != 0 {
			return c
		}
		if c := Compare(a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.Fields), len(b.Fields))
}
