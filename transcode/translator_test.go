package transcode

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xt-format/go-xt/format"
	"github.com/xt-format/go-xt/jsonfmt"
	"github.com/xt-format/go-xt/msgpackfmt"
	"github.com/xt-format/go-xt/tomlfmt"
	"github.com/xt-format/go-xt/yamlfmt"
)

func testRegistry(t *testing.T) *format.Registry {
	t.Helper()
	reg := format.NewRegistry()
	for _, e := range []*format.Entry{
		jsonfmt.Entry(), yamlfmt.Entry(), tomlfmt.Entry(), msgpackfmt.Entry(),
	} {
		if err := reg.Register(e); err != nil {
			t.Fatalf("register %s: %v", e.Format, err)
		}
	}
	return reg
}

func translate(t *testing.T, input, from, to string, opts ...Option) string {
	t.Helper()
	var buf bytes.Buffer
	tr, err := NewTranslator(testRegistry(t), &buf, to, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tr.Translate(SliceInput([]byte(input)), from); err != nil {
		t.Fatalf("unexpected translate error: %v", err)
	}
	return buf.String()
}

func TestJSONToYAML(t *testing.T) {
	got := translate(t, `{"b":1,"a":[true,null]}`, "json", "yaml")
	want := "---\nb: 1\na:\n  - true\n  - null\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestYAMLToJSONMultiDocument(t *testing.T) {
	got := translate(t, "---\na: 1\n---\n- x\n", "yaml", "json")
	want := "{\"a\":1}\n[\"x\"]\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestAliasNames(t *testing.T) {
	got := translate(t, `{"a":1}`, "j", "y")
	if got != "---\na: 1\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestUnknownFormatName(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewTranslator(testRegistry(t), &buf, "avro"); !errors.Is(err, format.ErrBadFormat) {
		t.Errorf("expected ErrBadFormat, got %v", err)
	}

	tr, err := NewTranslator(testRegistry(t), &buf, "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tr.Translate(SliceInput([]byte("{}")), "avro"); !errors.Is(err, format.ErrBadFormat) {
		t.Errorf("expected ErrBadFormat, got %v", err)
	}
}

func TestStreamingAndBufferedAgree(t *testing.T) {
	input := `{"b":1,"a":[true,null,1.5],"s":"x"} [2] "y"`
	streamed := translate(t, input, "json", "json")
	buffered := translate(t, input, "json", "json", WithBuffered())
	if streamed != buffered {
		t.Errorf("strategies disagree: %q vs %q", streamed, buffered)
	}
}

func TestMultiDocumentToSingleDocumentDestination(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTranslator(testRegistry(t), &buf, "toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = tr.Translate(SliceInput([]byte("{\"a\":1}\n{\"b\":2}")), "json")
	var serr *format.ValueShapeError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ValueShapeError, got %v", err)
	}
	// Fail-fast: the destination never saw the first document either.
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestSingleDocumentArityAcrossInputs(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTranslator(testRegistry(t), &buf, "toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tr.Translate(SliceInput([]byte(`{"a":1}`)), "json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = tr.Translate(SliceInput([]byte(`{"b":2}`)), "json")
	var serr *format.ValueShapeError
	if !errors.As(err, &serr) {
		t.Errorf("expected ValueShapeError on second input, got %v", err)
	}
}

func TestMultipleInputsConcatenate(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTranslator(testRegistry(t), &buf, "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tr.Translate(SliceInput([]byte("a: 1\n")), "yaml"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tr.Translate(SliceInput([]byte(`[2]`)), "json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "{\"a\":1}\n[2]\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
	if tr.Documents() != 2 {
		t.Errorf("expected 2 documents, got %d", tr.Documents())
	}
}

func TestStreamingPartialWrite(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTranslator(testRegistry(t), &buf, "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Truncated input: streaming has already flushed the array prefix by
	// the time the decoder hits the end.
	err = tr.Translate(SliceInput([]byte(`[1,2`)), "json")
	var perr *format.PartialWriteError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PartialWriteError, got %v", err)
	}
	if perr.Written != int64(buf.Len()) || perr.Written == 0 {
		t.Errorf("expected %d written bytes, got %d", buf.Len(), perr.Written)
	}
	var derr *format.DecodeError
	if !errors.As(err, &derr) || derr.Kind != format.UnexpectedEOF {
		t.Errorf("expected wrapped UnexpectedEOF, got %v", err)
	}

	// The translator is poisoned afterwards.
	if err2 := tr.Translate(SliceInput([]byte(`1`)), "json"); !errors.Is(err2, err) {
		t.Errorf("expected sticky error, got %v", err2)
	}
}

func TestBufferedDecodeFailureWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTranslator(testRegistry(t), &buf, "json", WithBuffered())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = tr.Translate(SliceInput([]byte(`[1,2`)), "json")
	var derr *format.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	var perr *format.PartialWriteError
	if errors.As(err, &perr) {
		t.Error("buffered failure must not be a partial write")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestDetectionSliceInput(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{`{"a":1}`, "{\"a\":1}\n"},
		{"a: 1\n", "{\"a\":1}\n"},
		{"a = 1\n", "{\"a\":1}\n"},
		{"\x81\xa1a\x01", "{\"a\":1}\n"},
	}
	for _, c := range cases {
		got := translate(t, c.input, "", "json")
		if got != c.want {
			t.Errorf("input %q: expected %q, got %q", c.input, c.want, got)
		}
	}
}

func TestDetectionReaderInput(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTranslator(testRegistry(t), &buf, "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tr.Translate(ReaderInput(strings.NewReader("b: 2\na: 1\n")), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "{\"b\":2,\"a\":1}\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestCaptureReaderRewind(t *testing.T) {
	cr := newCaptureReader(strings.NewReader("hello world"))
	first := make([]byte, 5)
	if _, err := cr.Read(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A rewound reader replays from the start, through the capture.
	r := cr.rewind()
	got := make([]byte, 8)
	if _, err := r.Read(got[:5]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got[:5]) != "hello" {
		t.Errorf("expected replayed prefix, got %q", got[:5])
	}

	// detach still sees everything captured so far plus the rest.
	all := new(bytes.Buffer)
	if _, err := all.ReadFrom(cr.detach()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if all.String() != "hello world" {
		t.Errorf("expected full stream, got %q", all.String())
	}
}
