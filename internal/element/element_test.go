package element

import (
	"bytes"
	"math/rand/v2"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"slave_address": RoleAddress,
		"error_check":   RoleErrorCheck,
		"byte_count":    RoleByteCount,
		"data_bytes":    RoleDataBytes,
		"function":      RoleNamed,
		"Error_Check":   RoleNamed,
	}
	for name, want := range cases {
		if got := ParseRole(name); got != want {
			t.Fatalf("ParseRole(%q) got=%v want=%v", name, got, want)
		}
	}
}

func TestSegmentWidth(t *testing.T) {
	seg := NewSegment("error_check", "crc", 16)
	if seg.Role != RoleErrorCheck {
		t.Fatalf("unexpected role=%v", seg.Role)
	}
	if seg.Width() != 2 || !seg.Aligned() {
		t.Fatalf("unexpected width=%d aligned=%v", seg.Width(), seg.Aligned())
	}
	odd := NewSegment("flags", "", 12)
	if odd.Width() != 1 || odd.Aligned() {
		t.Fatalf("unexpected width=%d aligned=%v", odd.Width(), odd.Aligned())
	}
}

func TestAppendUintBigEndian(t *testing.T) {
	got := AppendUint(nil, 0x0102, 2)
	if !bytes.Equal(got, []byte{0x01, 0x02}) {
		t.Fatalf("got=% X", got)
	}
	got = AppendUint([]byte{0xAA}, 0x05, 3)
	if !bytes.Equal(got, []byte{0xAA, 0x00, 0x00, 0x05}) {
		t.Fatalf("got=% X", got)
	}
}

func TestAppendUintTruncates(t *testing.T) {
	got := AppendUint(nil, 0x1FF, 1)
	if !bytes.Equal(got, []byte{0xFF}) {
		t.Fatalf("expected low byte only, got=% X", got)
	}
	if got := AppendUint(nil, 0xFFFF, 0); len(got) != 0 {
		t.Fatalf("zero width should append nothing, got=% X", got)
	}
}

func TestAppendUintWideWidthPads(t *testing.T) {
	got := AppendUint(nil, 0x0102030405060708, 10)
	want := []byte{0, 0, 1, 2, 3, 4, 5, 6, 7, 8}
	if !bytes.Equal(got, want) {
		t.Fatalf("got=% X want=% X", got, want)
	}
}

func TestAppendFillerDeterministic(t *testing.T) {
	a := AppendFiller(nil, 6, rand.New(rand.NewPCG(1, 2)))
	b := AppendFiller(nil, 6, rand.New(rand.NewPCG(1, 2)))
	if len(a) != 6 {
		t.Fatalf("unexpected length=%d", len(a))
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("same seed should produce same filler: % X vs % X", a, b)
	}
	if got := AppendFiller([]byte{1}, 0, rand.New(rand.NewPCG(1, 2))); len(got) != 1 {
		t.Fatalf("zero filler should not grow buffer")
	}
}
