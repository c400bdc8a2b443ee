package msgpackfmt

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/ir"
	"github.com/xt-format/go-xt/stream"
)

func decodeAll(t *testing.T, data []byte) []*ir.Node {
	t.Helper()
	docs, err := stream.Materialize(NewDecoder(bytes.NewReader(data)))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	return docs
}

func encodeAll(t *testing.T, docs []*ir.Node) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := stream.WriteStream(enc, docs); err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	want := []*ir.Node{
		ir.FromKeyVals([]ir.KeyVal{
			{Key: ir.FromString("name"), Val: ir.FromString("xt")},
			{Key: ir.FromString("n"), Val: ir.FromInt(-42)},
			{Key: ir.FromString("xs"), Val: ir.FromSlice([]*ir.Node{
				ir.FromBool(true),
				ir.Null(),
				ir.FromFloat(1.5),
				ir.FromBytes([]byte{0xde, 0xad}),
			})},
		}),
		ir.FromString("second"),
	}
	got := decodeAll(t, encodeAll(t, want))
	if len(got) != len(want) {
		t.Fatalf("expected %d documents, got %d", len(want), len(got))
	}
	for i := range want {
		if !ir.Equal(want[i], got[i]) {
			t.Errorf("document %d mismatch: %s", i, cmp.Diff(want[i], got[i]))
		}
	}
}

func TestMinimalIntegerFraming(t *testing.T) {
	cases := []struct {
		val  *ir.Node
		want []byte
	}{
		{ir.FromInt(127), []byte{0x7f}},
		{ir.FromInt(128), []byte{0xcc, 0x80}},
		{ir.FromInt(-32), []byte{0xe0}},
		{ir.FromInt(256), []byte{0xcd, 0x01, 0x00}},
	}
	for _, c := range cases {
		got := encodeAll(t, []*ir.Node{c.val})
		if !bytes.Equal(got, c.want) {
			t.Errorf("%s: expected % x, got % x", c.val.NumberText(), c.want, got)
		}
	}
}

func TestUint64AboveInt64(t *testing.T) {
	// uint64 marker with all bits set.
	data := []byte{0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	docs := decodeAll(t, data)
	if docs[0].NumberText() != "18446744073709551615" {
		t.Fatalf("expected max uint64, got %q", docs[0].NumberText())
	}
	if got := encodeAll(t, docs); !bytes.Equal(got, data) {
		t.Errorf("expected % x, got % x", data, got)
	}
}

func TestIntegerBeyondUint64(t *testing.T) {
	var buf bytes.Buffer
	err := stream.WriteDocument(NewEncoder(&buf), ir.FromNumber("18446744073709551616"))
	var rangeErr *format.NumericRangeError
	if !errors.As(err, &rangeErr) {
		t.Errorf("expected NumericRangeError, got %v", err)
	}
}

func TestTruncatedFrame(t *testing.T) {
	// fixmap declaring 2 pairs, carrying only 1.
	data := []byte{0x82, 0xa1, 'a', 0x01}
	_, err := stream.Materialize(NewDecoder(bytes.NewReader(data)))
	var derr *format.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if derr.Kind != format.UnexpectedEOF {
		t.Errorf("expected UnexpectedEOF, got %v", derr.Kind)
	}
}

func TestTruncatedString(t *testing.T) {
	// fixstr of length 5, 2 bytes present.
	data := []byte{0xa5, 'h', 'i'}
	_, err := stream.Materialize(NewDecoder(bytes.NewReader(data)))
	var derr *format.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if derr.Kind != format.UnexpectedEOF {
		t.Errorf("expected UnexpectedEOF, got %v", derr.Kind)
	}
}

func TestExtensionRejected(t *testing.T) {
	// fixext1, type 1.
	data := []byte{0xd4, 0x01, 0x00}
	_, err := stream.Materialize(NewDecoder(bytes.NewReader(data)))
	var derr *format.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if derr.Kind != format.SyntaxError {
		t.Errorf("expected SyntaxError, got %v", derr.Kind)
	}
}

func TestCompositeMapKeys(t *testing.T) {
	// {[1]: "hi"}
	data := []byte{0x81, 0x91, 0x01, 0xa2, 'h', 'i'}
	docs := decodeAll(t, data)
	doc := docs[0]
	if len(doc.Fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(doc.Fields))
	}
	wantKey := ir.FromSlice([]*ir.Node{ir.FromInt(1)})
	if !ir.Equal(doc.Fields[0], wantKey) {
		t.Errorf("key mismatch: %s", cmp.Diff(wantKey, doc.Fields[0]))
	}
	if doc.Values[0].String != "hi" {
		t.Errorf("expected value \"hi\", got %q", doc.Values[0].String)
	}

	// Composite keys survive re-encoding.
	if got := encodeAll(t, docs); !bytes.Equal(got, data) {
		t.Errorf("expected % x, got % x", data, got)
	}
}

func TestDuplicateKeysLastWins(t *testing.T) {
	// {"a": 1, "a": 2}
	data := []byte{0x82, 0xa1, 'a', 0x01, 0xa1, 'a', 0x02}
	docs := decodeAll(t, data)
	doc := docs[0]
	if len(doc.Fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(doc.Fields))
	}
	if *doc.Values[0].Int64 != 2 {
		t.Errorf("expected last value to win, got %d", *doc.Values[0].Int64)
	}
}

func TestDepthLimit(t *testing.T) {
	// [[[1]]]
	data := []byte{0x91, 0x91, 0x91, 0x01}
	_, err := stream.Materialize(NewDecoder(bytes.NewReader(data), WithMaxDepth(2)))
	var derr *format.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if derr.Kind != format.DepthLimitExceeded {
		t.Errorf("expected DepthLimitExceeded, got %v", derr.Kind)
	}
}

func TestEmptyInput(t *testing.T) {
	docs := decodeAll(t, nil)
	if len(docs) != 0 {
		t.Errorf("expected no documents, got %d", len(docs))
	}
}
