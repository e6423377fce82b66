package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseView,
				Kind:   KindNilPointer,
				Path:   []string{"args", "argv"},
				GoType: "*byte",
				CType:  "char **",
				Detail: "null handle paired with count 3",
			},
			contains: []string{"[view]", "nil_pointer", "args.argv", "*byte", "char **", "count 3"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindInvalidUTF8,
			},
			contains: []string{"[decode]", "invalid_utf8"},
		},
		{
			name: "C type only",
			err: &Error{
				Phase:  PhaseEncode,
				Kind:   KindInteriorNul,
				CType:  "const char *",
				Detail: "interior NUL byte at offset 2",
			},
			contains: []string{"C type const char *", " - interior NUL"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseGuest,
				Kind:   KindAllocation,
				Detail: "malloc returned null",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[guest]", "allocation", "malloc returned null", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInteriorNul,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDeref,
		Kind:  KindNilPointer,
		Path:  []string{"stat"},
	}

	if !err.Is(&Error{Phase: PhaseDeref, Kind: KindNilPointer}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseView, Kind: KindNilPointer}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseDeref, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseDeref, Kind: KindNilPointer}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestIsKind(t *testing.T) {
	inner := NilPointer(PhaseDecode, nil, "*byte")
	outer := Wrap(PhaseGuest, KindInvalidInput, inner, "read argument")
	wrapped := fmt.Errorf("call greet: %w", outer)

	tests := []struct {
		name string
		err  error
		kind Kind
		want bool
	}{
		{"direct", inner, KindNilPointer, true},
		{"outer kind", wrapped, KindInvalidInput, true},
		{"cause kind", wrapped, KindNilPointer, true},
		{"absent kind", wrapped, KindInvalidUTF8, false},
		{"plain error", errors.New("x"), KindNilPointer, false},
		{"nil", nil, KindNilPointer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsKind(tt.err, tt.kind); got != tt.want {
				t.Errorf("IsKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseView, KindNilPointer).
		Path("args", "argv").
		GoType("*byte").
		CType("char **").
		Value(3).
		Cause(cause).
		Detail("null handle paired with count %d", 3).
		Build()

	if err.Phase != PhaseView {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseView)
	}
	if err.Kind != KindNilPointer {
		t.Errorf("Kind = %v, want %v", err.Kind, KindNilPointer)
	}
	if len(err.Path) != 2 || err.Path[0] != "args" || err.Path[1] != "argv" {
		t.Errorf("Path = %v, want [args argv]", err.Path)
	}
	if err.GoType != "*byte" {
		t.Errorf("GoType = %v, want '*byte'", err.GoType)
	}
	if err.CType != "char **" {
		t.Errorf("CType = %v, want 'char **'", err.CType)
	}
	if err.Value != 3 {
		t.Errorf("Value = %v, want 3", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "null handle paired with count 3" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("NilPointer", func(t *testing.T) {
		err := NilPointer(PhaseDeref, []string{"ptr"}, "*C.struct_stat")
		if err.Kind != KindNilPointer {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNilPointer)
		}
		if err.GoType != "*C.struct_stat" {
			t.Errorf("GoType = %v", err.GoType)
		}
	})

	t.Run("NilWithCount", func(t *testing.T) {
		err := NilWithCount(PhaseView, nil, "uint32", 7)
		if err.Kind != KindNilPointer {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNilPointer)
		}
		if err.Value != 7 || !strings.Contains(err.Detail, "7") {
			t.Errorf("Value=%v Detail=%q, want count 7", err.Value, err.Detail)
		}
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		data := make([]byte, 64)
		data[0] = 0xff
		err := InvalidUTF8(PhaseDecode, []string{"str"}, data)
		if err.Kind != KindInvalidUTF8 {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidUTF8)
		}
		// preview is capped at 32 bytes
		if !strings.HasSuffix(err.Detail, strings.Repeat("00", 31)) || strings.Contains(err.Detail, strings.Repeat("00", 32)) {
			t.Errorf("Detail = %q, want 32-byte preview", err.Detail)
		}
	})

	t.Run("InteriorNul", func(t *testing.T) {
		err := InteriorNul(PhaseEncode, nil, 4)
		if err.Kind != KindInteriorNul {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInteriorNul)
		}
		if err.Value != 4 {
			t.Errorf("Value = %v, want 4", err.Value)
		}
	})

	t.Run("UnrepresentablePath", func(t *testing.T) {
		err := UnrepresentablePath(PhaseEncode, "/tmp/\xff")
		if err.Kind != KindUnrepresentable {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnrepresentable)
		}
		if !strings.Contains(err.Detail, `"/tmp/\xff"`) {
			t.Errorf("Detail = %q, should name the path", err.Detail)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseGuest, 1024, 8)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("Released", func(t *testing.T) {
		err := Released(PhaseEncode, "C string")
		if err.Kind != KindReleased {
			t.Errorf("Kind = %v, want %v", err.Kind, KindReleased)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseGuest, []string{"memory"}, 70000, 65536)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 70000 {
			t.Errorf("Value = %v, want 70000", err.Value)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseGuest, []string{"len"}, 1<<33, "uint32_t")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.CType != "uint32_t" {
			t.Errorf("CType = %v, want uint32_t", err.CType)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseRuntime, "function", "greet")
		if err.Kind != KindNotFound || !strings.Contains(err.Detail, `"greet"`) {
			t.Errorf("unexpected error %v", err)
		}
	})
}

func TestMissingImportsError(t *testing.T) {
	t.Run("single import", func(t *testing.T) {
		err := NewMissingImportsError([]string{"env#host_log"})
		if len(err.Imports) != 1 {
			t.Fatalf("expected 1 import, got %d", len(err.Imports))
		}
		if err.Imports[0].Module != "env" {
			t.Errorf("module = %q, want env", err.Imports[0].Module)
		}
		if err.Imports[0].Function != "host_log" {
			t.Errorf("function = %q, want host_log", err.Imports[0].Function)
		}
	})

	t.Run("multiple modules grouped", func(t *testing.T) {
		err := NewMissingImportsError([]string{
			"env#host_log",
			"sys#clock",
			"env#host_alloc",
		})
		msg := err.Error()
		if !strings.Contains(msg, "missing 3") {
			t.Errorf("error should contain count, got: %s", msg)
		}
		if !strings.Contains(msg, "env:") || !strings.Contains(msg, "sys:") {
			t.Errorf("error should group by module, got: %s", msg)
		}
		if strings.Count(msg, "env:") != 1 {
			t.Errorf("module env should appear once, got: %s", msg)
		}
	})

	t.Run("no separator", func(t *testing.T) {
		err := NewMissingImportsError([]string{"bare"})
		if err.Imports[0].Module != "bare" || err.Imports[0].Function != "" {
			t.Errorf("unexpected parse %+v", err.Imports[0])
		}
	})

	t.Run("empty imports", func(t *testing.T) {
		err := NewMissingImportsError([]string{})
		if !strings.Contains(err.Error(), "no imports specified") {
			t.Errorf("empty error should have specific message, got: %s", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := NewMissingImportsError([]string{"env#fn"})
		if !errors.Is(err, &MissingImportsError{}) {
			t.Error("errors.Is should match MissingImportsError")
		}
	})
}

func TestDemangleRust(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"host_log", "host_log"},
		{"_ZN7mycrate3ffi8host_log17h0123456789abcdefE", "mycrate::ffi::host_log"},
		{"_ZN4core3ptr8write_fn17ha1b2c3d4e5f67890E", "core::ptr::write_fn"},
		{"_ZN", "_ZN"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := demangleRust(tt.input); got != tt.expected {
				t.Errorf("demangleRust(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
