package rbac

import "testing"

func TestRegistryAssignsSequentialBits(t *testing.T) {
	r := NewRegistry()
	for i, perm := range Permissions() {
		bit, err := r.Register(perm)
		if err != nil {
			t.Fatalf("Register(%q) failed: %v", perm, err)
		}
		if bit != i {
			t.Fatalf("Register(%q) = bit %d, want %d", perm, bit, i)
		}
	}
	if r.Count() != len(Permissions()) {
		t.Fatalf("Count = %d, want %d", r.Count(), len(Permissions()))
	}
}

func TestRegistryRejectsDuplicateAndEmpty(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(PermReadEvents); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := r.Register(PermReadEvents); err == nil {
		t.Fatal("expected duplicate rejection")
	}
	if _, err := r.Register(""); err == nil {
		t.Fatal("expected empty name rejection")
	}
}

func TestRegistryFreeze(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	if _, err := r.Register(PermReadEvents); err == nil {
		t.Fatal("expected frozen registry to reject registration")
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	r := NewRegistry()
	bit, err := r.Register(PermWriteEvents)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, ok := r.Bit(PermWriteEvents)
	if !ok || got != bit {
		t.Fatalf("Bit = %d/%v, want %d/true", got, ok, bit)
	}
	name, ok := r.Name(bit)
	if !ok || name != PermWriteEvents {
		t.Fatalf("Name = %q/%v, want %q/true", name, ok, PermWriteEvents)
	}
	if _, ok := r.Name(63); ok {
		t.Fatal("expected unassigned bit to miss")
	}
}

func TestMask64(t *testing.T) {
	var m Mask64
	m.Set(0)
	m.Set(63)
	if !m.Has(0) || !m.Has(63) {
		t.Fatal("expected bits 0 and 63 set")
	}
	if m.Has(1) {
		t.Fatal("unexpected bit 1")
	}
	m.Clear(0)
	if m.Has(0) {
		t.Fatal("expected bit 0 cleared")
	}
	if m.Has(-1) || m.Has(64) {
		t.Fatal("out-of-range bits must read false")
	}
	m.Set(64)
	if m.Raw() != 1<<63 {
		t.Fatalf("out-of-range set must be ignored, raw = %x", m.Raw())
	}
}
