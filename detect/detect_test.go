package detect

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/xt-format/go-xt/format"
)

func opener(data []byte) func() io.Reader {
	return func() io.Reader { return bytes.NewReader(data) }
}

func TestInput(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want format.Format
	}{
		{"json object", []byte(`{"a":1}`), format.JSON},
		{"json array", []byte(`[1,2]`), format.JSON},
		{"json scalar", []byte(`123`), format.JSON},
		{"yaml mapping", []byte("a: 1\nb: 2\n"), format.YAML},
		{"yaml sequence", []byte("- 1\n- 2\n"), format.YAML},
		{"toml", []byte("a = 1\n[t]\nb = 2\n"), format.TOML},
		{"msgpack fixmap", []byte{0x81, 0xa1, 'a', 0x01}, format.Msgpack},
		{"msgpack fixarray", []byte{0x92, 0x01, 0x02}, format.Msgpack},
		{"msgpack array16", []byte{0xdc, 0x00, 0x01, 0x01}, format.Msgpack},
	}
	for _, c := range cases {
		got, err := Input(opener(c.data))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s: expected %s, got %s", c.name, c.want, got)
		}
	}
}

func TestInputUnknown(t *testing.T) {
	// Not valid in any format: a bare colon is a YAML scalar at best, and
	// YAML scalars are not claimed.
	_, err := Input(opener([]byte("just some words\n")))
	if !errors.Is(err, ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}
}

func TestJSONBeatsYAML(t *testing.T) {
	// Every JSON document is also YAML; the tighter grammar wins.
	got, err := Input(opener([]byte(`{"a": 1}`)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != format.JSON {
		t.Errorf("expected json, got %s", got)
	}
}

func TestMsgpackScalarNotClaimed(t *testing.T) {
	// A positive fixint alone is indistinguishable from text; only
	// collection markers are claimed for MessagePack.
	got, err := Input(opener([]byte{'5'}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != format.JSON {
		t.Errorf("expected json for ASCII digit, got %s", got)
	}
}
