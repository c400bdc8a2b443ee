package ir

import (
	"slices"
	"strconv"
)

// Node is the canonical in-memory form of a decoded document value. It is
// a tagged union: Type selects which of the remaining fields carry the
// value.
//
// Objects keep their entries in the Fields/Values parallel slices so that
// key order survives transcoding. Fields[i] is the key for Values[i]; keys
// are themselves nodes, since binary formats permit non-string keys.
//
// Integers are stored in Int64 when they fit, otherwise the decimal text
// is kept in Number. Floats are stored in Float64. A node never populates
// more than one numeric field.
type Node struct {
	Type Type

	Bool    bool
	Int64   *int64
	Float64 *float64
	Number  string
	String  string
	Bytes   []byte

	Fields []*Node
	Values []*Node
}

func FromString(v string) *Node {
	return &Node{
		Type:   StringType,
		String: v,
	}
}

func FromInt(v int64) *Node {
	return &Node{
		Type:  IntType,
		Int64: &v,
	}
}

// FromNumber returns an integer node for decimal text that may not fit in
// an int64, such as a uint64 from a binary format or an arbitrary
// precision JSON integer. Text within int64 range is stored exactly as if
// by FromInt.
func FromNumber(text string) *Node {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return FromInt(i)
	}
	return &Node{
		Type:   IntType,
		Number: text,
	}
}

func FromUint(v uint64) *Node {
	if v <= maxInt64 {
		return FromInt(int64(v))
	}
	return &Node{
		Type:   IntType,
		Number: strconv.FormatUint(v, 10),
	}
}

const maxInt64 = uint64(1<<63 - 1)

func FromFloat(v float64) *Node {
	return &Node{
		Type:    FloatType,
		Float64: &v,
	}
}

func FromBool(v bool) *Node {
	return &Node{
		Type: BoolType,
		Bool: v,
	}
}

func FromBytes(v []byte) *Node {
	return &Node{
		Type:  BinaryType,
		Bytes: v,
	}
}

func Null() *Node {
	return &Node{Type: NullType}
}

func FromSlice(vs []*Node) *Node {
	return &Node{
		Type:   ArrayType,
		Values: vs,
	}
}

type KeyVal struct {
	Key *Node
	Val *Node
}

func FromKeyVals(kvs []KeyVal) *Node {
	res := &Node{Type: ObjectType}
	res.Fields = make([]*Node, len(kvs))
	res.Values = make([]*Node, len(kvs))
	for i := range kvs {
		kv := &kvs[i]
		if kv.Key == nil {
			kv.Key = Null()
		}
		res.Fields[i] = kv.Key
		res.Values[i] = kv.Val
	}
	return res
}

// FromMap builds an object node with keys in sorted order. Mostly useful
// in tests; decoders build objects in document order via SetField.
func FromMap(m map[string]*Node) *Node {
	res := &Node{Type: ObjectType}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	res.Fields = make([]*Node, len(keys))
	res.Values = make([]*Node, len(keys))
	for i, key := range keys {
		res.Fields[i] = FromString(key)
		res.Values[i] = m[key]
	}
	return res
}

// SetField appends a key/value pair to an object node, replacing the value
// in place if an equal key is already present. This is the
// last-occurrence-wins duplicate key policy shared by the decoders.
func (n *Node) SetField(key, val *Node) {
	for i, f := range n.Fields {
		if Equal(f, key) {
			n.Values[i] = val
			return
		}
	}
	n.Fields = append(n.Fields, key)
	n.Values = append(n.Values, val)
}

// Get returns the value for a string key, or nil.
func Get(n *Node, field string) *Node {
	for i := range n.Fields {
		f := n.Fields[i]
		if f.Type == StringType && f.String == field {
			return n.Values[i]
		}
	}
	return nil
}

// AsInt64 reports the node's integer value when it fits in an int64.
func (n *Node) AsInt64() (int64, bool) {
	if n.Type != IntType {
		return 0, false
	}
	if n.Int64 != nil {
		return *n.Int64, true
	}
	i, err := strconv.ParseInt(n.Number, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// AsUint64 reports the node's integer value when it is non-negative and
// fits in a uint64.
func (n *Node) AsUint64() (uint64, bool) {
	if n.Type != IntType {
		return 0, false
	}
	if n.Int64 != nil {
		if *n.Int64 < 0 {
			return 0, false
		}
		return uint64(*n.Int64), true
	}
	u, err := strconv.ParseUint(n.Number, 10, 64)
	if err != nil {
		return 0, false
	}
	return u, true
}

// NumberText returns the decimal text of an integer node.
func (n *Node) NumberText() string {
	if n.Int64 != nil {
		return strconv.FormatInt(*n.Int64, 10)
	}
	return n.Number
}

func (n *Node) Clone() *Node {
	res := &Node{}
	n.CloneTo(res)
	return res
}

func (n *Node) CloneTo(dst *Node) {
	dst.Type = n.Type
	dst.Bool = n.Bool
	dst.Number = n.Number
	dst.String = n.String
	if n.Int64 != nil {
		i := *n.Int64
		dst.Int64 = &i
	}
	if n.Float64 != nil {
		f := *n.Float64
		dst.Float64 = &f
	}
	if n.Bytes != nil {
		dst.Bytes = slices.Clone(n.Bytes)
	}
	if n.Fields != nil {
		dst.Fields = make([]*Node, len(n.Fields))
		for i, f := range n.Fields {
			dst.Fields[i] = f.Clone()
		}
	}
	if n.Values != nil {
		dst.Values = make([]*Node, len(n.Values))
		for i, v := range n.Values {
			dst.Values[i] = v.Clone()
		}
	}
}

// Visit walks the node tree, calling f before (isPost false) and after
// (isPost true) each node's children. Returning false from the pre call
// skips the children. Object keys are not visited.
func (n *Node) Visit(f func(n *Node, isPost bool) (bool, error)) error {
	dive, err := f(n, false)
	if err != nil {
		return err
	}
	if dive {
		for _, v := range n.Values {
			if err := v.Visit(f); err != nil {
				return err
			}
		}
	}
	_, err = f(n, true)
	return err
}
