package tomlfmt

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/ir"
	"github.com/xt-format/go-xt/stream"
)

func decodeOne(t *testing.T, input string, opts ...Option) *ir.Node {
	t.Helper()
	docs, err := stream.Materialize(NewDecoder(strings.NewReader(input), opts...))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	return docs[0]
}

func encodeOne(t *testing.T, doc *ir.Node, opts ...Option) string {
	t.Helper()
	var buf bytes.Buffer
	enc := NewEncoder(&buf, opts...)
	if err := stream.WriteDocument(enc, doc); err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	return buf.String()
}

func TestDecodeKeyOrder(t *testing.T) {
	doc := decodeOne(t, `
b = 1
a = "two"

[server]
port = 8080
host = "h"
`)
	var order []string
	for _, f := range doc.Fields {
		order = append(order, f.String)
	}
	if !cmp.Equal(order, []string{"b", "a", "server"}) {
		t.Errorf("unexpected key order %v", order)
	}
	server := ir.Get(doc, "server")
	if server.Fields[0].String != "port" || server.Fields[1].String != "host" {
		t.Error("table key order not preserved")
	}
	if got := ir.Get(server, "port"); *got.Int64 != 8080 {
		t.Errorf("port: got %d", *got.Int64)
	}
}

func TestDecodeArrayOfTables(t *testing.T) {
	doc := decodeOne(t, `
[[item]]
n = 1

[[item]]
n = 2
m = 3
`)
	items := ir.Get(doc, "item")
	if items.Type != ir.ArrayType || len(items.Values) != 2 {
		t.Fatalf("expected 2 items, got %+v", items)
	}
	if *ir.Get(items.Values[1], "m").Int64 != 3 {
		t.Error("second table element wrong")
	}
}

func TestDecodeScalars(t *testing.T) {
	doc := decodeOne(t, `
i = -5
f = 2.5
inf = inf
b = true
s = "x"
d = 1979-05-27T07:32:00Z
xs = [1, "two", [true]]
`)
	if got := ir.Get(doc, "i"); *got.Int64 != -5 {
		t.Errorf("i: got %d", *got.Int64)
	}
	if got := ir.Get(doc, "f"); *got.Float64 != 2.5 {
		t.Errorf("f: got %v", *got.Float64)
	}
	if got := ir.Get(doc, "inf"); !math.IsInf(*got.Float64, 1) {
		t.Errorf("inf: got %v", *got.Float64)
	}
	if got := ir.Get(doc, "b"); !got.Bool {
		t.Error("b: expected true")
	}
	// Datetimes pass through as their text form.
	if got := ir.Get(doc, "d"); got.Type != ir.StringType || got.String != "1979-05-27T07:32:00Z" {
		t.Errorf("d: got %+v", got)
	}
	xs := ir.Get(doc, "xs")
	if len(xs.Values) != 3 || xs.Values[2].Values[0].Bool != true {
		t.Errorf("xs: got %+v", xs)
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	doc := decodeOne(t, "")
	if doc.Type != ir.ObjectType || len(doc.Fields) != 0 {
		t.Errorf("expected empty object, got %+v", doc)
	}
}

func TestDecodeDuplicateKeysRejected(t *testing.T) {
	_, err := stream.Materialize(NewDecoder(strings.NewReader("a = 1\na = 2\n")))
	var derr *format.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if derr.Kind != format.SyntaxError {
		t.Errorf("expected SyntaxError, got %v", derr.Kind)
	}
}

func TestDecodeSyntaxError(t *testing.T) {
	_, err := stream.Materialize(NewDecoder(strings.NewReader("= broken")))
	var derr *format.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if derr.Format != format.TOML {
		t.Errorf("expected toml, got %s", derr.Format)
	}
}

func TestEncodeLayout(t *testing.T) {
	doc := ir.FromKeyVals([]ir.KeyVal{
		{Key: ir.FromString("b"), Val: ir.FromInt(1)},
		{Key: ir.FromString("s"), Val: ir.FromString("x")},
		{Key: ir.FromString("server"), Val: ir.FromKeyVals([]ir.KeyVal{
			{Key: ir.FromString("port"), Val: ir.FromInt(8080)},
		})},
	})
	got := encodeOne(t, doc)
	want := "b = 1\ns = \"x\"\n\n[server]\nport = 8080\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestEncodeArrayOfTables(t *testing.T) {
	doc := ir.FromKeyVals([]ir.KeyVal{
		{Key: ir.FromString("item"), Val: ir.FromSlice([]*ir.Node{
			ir.FromKeyVals([]ir.KeyVal{{Key: ir.FromString("n"), Val: ir.FromInt(1)}}),
			ir.FromKeyVals([]ir.KeyVal{{Key: ir.FromString("n"), Val: ir.FromInt(2)}}),
		})},
	})
	got := encodeOne(t, doc)
	want := "\n[[item]]\nn = 1\n\n[[item]]\nn = 2\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestEncodeInlineValues(t *testing.T) {
	doc := ir.FromKeyVals([]ir.KeyVal{
		{Key: ir.FromString("xs"), Val: ir.FromSlice([]*ir.Node{
			ir.FromInt(1),
			ir.FromKeyVals([]ir.KeyVal{{Key: ir.FromString("a"), Val: ir.FromBool(true)}}),
		})},
		{Key: ir.FromString("f"), Val: ir.FromFloat(2)},
		{Key: ir.FromString("my key"), Val: ir.FromString("v")},
	})
	got := encodeOne(t, doc)
	want := "xs = [1, {a = true}]\nf = 2.0\n\"my key\" = \"v\"\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	want := decodeOne(t, `
title = "demo"
n = 9223372036854775807

[owner]
name = "x"
tags = ["a", "b"]

[[runs]]
ok = true
`)
	got := decodeOne(t, encodeOne(t, want))
	if !ir.Equal(want, got) {
		t.Errorf("round trip mismatch: %s", cmp.Diff(want, got))
	}
}

func TestEncodeTopLevelShape(t *testing.T) {
	for _, doc := range []*ir.Node{ir.FromInt(1), ir.FromSlice(nil), ir.Null()} {
		var buf bytes.Buffer
		err := stream.WriteDocument(NewEncoder(&buf), doc)
		var serr *format.ValueShapeError
		if !errors.As(err, &serr) {
			t.Errorf("%s: expected ValueShapeError, got %v", doc.Type, err)
		}
		if buf.Len() != 0 {
			t.Errorf("%s: expected no output, got %q", doc.Type, buf.String())
		}
	}
}

func TestEncodeNull(t *testing.T) {
	doc := ir.FromKeyVals([]ir.KeyVal{{Key: ir.FromString("a"), Val: ir.Null()}})
	var buf bytes.Buffer
	err := stream.WriteDocument(NewEncoder(&buf), doc)
	var uerr *format.UnsupportedValueError
	if !errors.As(err, &uerr) {
		t.Errorf("expected UnsupportedValueError, got %v", err)
	}
}

func TestEncodeBinary(t *testing.T) {
	doc := ir.FromKeyVals([]ir.KeyVal{{Key: ir.FromString("b"), Val: ir.FromBytes([]byte("hi"))}})
	var buf bytes.Buffer
	err := stream.WriteDocument(NewEncoder(&buf), doc)
	var uerr *format.UnsupportedValueError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnsupportedValueError, got %v", err)
	}

	got := encodeOne(t, doc, WithBinaryBase64())
	want := "b = \"aGk=\"\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestEncodeIntegerRange(t *testing.T) {
	doc := ir.FromKeyVals([]ir.KeyVal{
		{Key: ir.FromString("n"), Val: ir.FromNumber("18446744073709551615")},
	})
	var buf bytes.Buffer
	err := stream.WriteDocument(NewEncoder(&buf), doc)
	var rangeErr *format.NumericRangeError
	if !errors.As(err, &rangeErr) {
		t.Errorf("expected NumericRangeError, got %v", err)
	}
}

func TestEncodeNonStringKey(t *testing.T) {
	doc := ir.FromKeyVals([]ir.KeyVal{{Key: ir.FromInt(1), Val: ir.FromInt(2)}})
	var buf bytes.Buffer
	err := stream.WriteDocument(NewEncoder(&buf), doc)
	var serr *format.ValueShapeError
	if !errors.As(err, &serr) {
		t.Errorf("expected ValueShapeError, got %v", err)
	}
}

func TestEncodeSecondDocument(t *testing.T) {
	obj := ir.FromKeyVals([]ir.KeyVal{{Key: ir.FromString("a"), Val: ir.FromInt(1)}})
	var buf bytes.Buffer
	err := stream.WriteStream(NewEncoder(&buf), []*ir.Node{obj, obj})
	var serr *format.ValueShapeError
	if !errors.As(err, &serr) {
		t.Errorf("expected ValueShapeError, got %v", err)
	}
}
