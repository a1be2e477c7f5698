package ids

import (
	"strings"
	"testing"
	"time"
)

func TestNewProducesValidIdentifiers(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := New()
		if len(id) != Len {
			t.Fatalf("len(%q) = %d, want %d", id, len(id), Len)
		}
		if !Valid(id) {
			t.Fatalf("generated id %q does not validate", id)
		}
	}
}

func TestNewIsSortableByTime(t *testing.T) {
	a := New()
	time.Sleep(2 * time.Millisecond)
	b := New()
	if strings.Compare(a, b) >= 0 {
		t.Fatalf("expected %q < %q", a, b)
	}
}

func TestValidRejections(t *testing.T) {
	cases := []string{
		"",
		"short",
		strings.Repeat("0", Len-1),
		strings.Repeat("0", Len+1),
		strings.Repeat("U", Len), // U is outside Crockford base32
		strings.Repeat("!", Len),
	}
	for _, id := range cases {
		if Valid(id) {
			t.Errorf("Valid(%q) = true, want false", id)
		}
	}
}
