package cstr

import (
	"bytes"
	"strings"
	"testing"
	"unsafe"

	"github.com/wippyai/cbridge/cptr"
	"github.com/wippyai/cbridge/errors"
)

func TestBoundedCopy(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		src      string
		want     string // bytes expected at the start of dst
		ret      int
	}{
		{"truncates", 3, "hello", "he\x00", 6},
		{"fits", 10, "hi", "hi\x00", 3},
		{"exact fit", 6, "hello", "hello\x00", 6},
		{"one short", 5, "hello", "hell\x00", 6},
		{"capacity one", 1, "hello", "\x00", 6},
		{"empty source", 4, "", "\x00", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := bytes.Repeat([]byte{0xaa}, tt.capacity)
			ret := BoundedCopy(unsafe.Pointer(&dst[0]), tt.capacity, tt.src)
			if ret != tt.ret {
				t.Errorf("returned %d, want %d", ret, tt.ret)
			}
			if got := string(dst[:len(tt.want)]); got != tt.want {
				t.Errorf("dst = %q, want prefix %q", dst, tt.want)
			}
			if Truncated(ret, tt.capacity) != (len(tt.src)+1 > tt.capacity) {
				t.Errorf("Truncated(%d, %d) disagrees with lengths", ret, tt.capacity)
			}
		})
	}
}

func TestBoundedCopy_ZeroCapacity(t *testing.T) {
	dst := []byte{0xaa}
	if ret := BoundedCopy(unsafe.Pointer(&dst[0]), 0, "anything"); ret != 9 {
		t.Errorf("returned %d, want 9", ret)
	}
	if dst[0] != 0xaa {
		t.Error("capacity 0 must not write")
	}

	// nil destination is fine when nothing is written
	if ret := BoundedCopy(nil, 0, "abc"); ret != 4 {
		t.Errorf("returned %d, want 4", ret)
	}
}

func TestBoundedCopy_NeverOverruns(t *testing.T) {
	const guard = 8
	src := strings.Repeat("z", 12)

	for capacity := 0; capacity <= 10; capacity++ {
		for l := 0; l <= len(src); l++ {
			buf := bytes.Repeat([]byte{0xaa}, capacity+guard)
			ret := BoundedCopy(unsafe.Pointer(&buf[0]), capacity, src[:l])
			if ret != l+1 {
				t.Fatalf("cap %d len %d: returned %d", capacity, l, ret)
			}
			for i := capacity; i < len(buf); i++ {
				if buf[i] != 0xaa {
					t.Fatalf("cap %d len %d: wrote byte %d past capacity", capacity, l, i)
				}
			}
			if capacity > 0 {
				n := min(l, capacity-1)
				if buf[n] != 0 {
					t.Fatalf("cap %d len %d: missing terminator at %d", capacity, l, n)
				}
			}
		}
	}
}

func TestBoundedCopy_ContractViolation(t *testing.T) {
	defer func() {
		r := recover()
		e, ok := r.(*errors.Error)
		if !ok || e.Kind != errors.KindNilPointer || e.Phase != errors.PhaseCopy {
			t.Errorf("recovered %v, want [copy] nil_pointer error", r)
		}
	}()
	BoundedCopy(nil, 4, "abc")
	t.Error("BoundedCopy(nil, 4) should panic")
}

func TestBoundedCopy_NegativeCapacity(t *testing.T) {
	buf := make([]byte, 4)
	defer func() {
		e, ok := recover().(*errors.Error)
		if !ok || e.Kind != errors.KindInvalidInput || e.Phase != errors.PhaseCopy {
			t.Errorf("recovered %v, want [copy] invalid_input error", e)
		}
	}()
	BoundedCopy(unsafe.Pointer(&buf[0]), -1, "abc")
	t.Error("BoundedCopy with negative capacity should panic")
}

func TestBoundedCopyInto(t *testing.T) {
	buf := make([]byte, 8)
	v := cptr.FromSliceMut(buf)
	if ret := BoundedCopyInto(v.Slice(0, 4), "sensor"); ret != 7 {
		t.Errorf("returned %d, want 7", ret)
	}
	if string(buf[:4]) != "sen\x00" {
		t.Errorf("buf = %q", buf)
	}
}

func TestBoundedCopyFixed(t *testing.T) {
	var h header
	if ret := BoundedCopyFixed(h.Model[:], "X-2000"); ret != 7 {
		t.Errorf("returned %d, want 7", ret)
	}
	got, err := DecodeFixed(h.Model[:])
	if err != nil || got != "X-2000" {
		t.Errorf("DecodeFixed after copy = %q, %v", got, err)
	}

	ret := BoundedCopyFixed(h.Tag[:], "long")
	if !Truncated(ret, len(h.Tag)) || h.Tag[0] != 0 {
		t.Errorf("width-1 field should hold only the terminator, ret %d", ret)
	}
}
