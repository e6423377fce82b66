package cbridge

import (
	"testing"
	"unsafe"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/cbridge/cptr"
	"github.com/wippyai/cbridge/errors"
)

func withObservedLogger(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}

func TestMust_Success(t *testing.T) {
	x := 5
	p := Must(cptr.MustRef[int](unsafe.Pointer(&x)))
	if *p != 5 {
		t.Errorf("Must returned %d, want 5", *p)
	}
}

func TestCheck_Nil(t *testing.T) {
	logs := withObservedLogger(t)
	Check(nil)
	if logs.Len() != 0 {
		t.Errorf("Check(nil) logged %d entries", logs.Len())
	}
}

func TestMust_LogsAndPanics(t *testing.T) {
	logs := withObservedLogger(t)

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.IsKind(err, errors.KindNilPointer) {
			t.Fatalf("recovered %v, want nil_pointer error", r)
		}

		entries := logs.FilterMessage("boundary contract violated").All()
		if len(entries) != 1 {
			t.Fatalf("expected 1 log entry, got %d", len(entries))
		}
		fields := entries[0].ContextMap()
		if fields["phase"] != "view" || fields["kind"] != "nil_pointer" {
			t.Errorf("unexpected fields: %v", fields)
		}
		if entries[0].Level != zapcore.ErrorLevel {
			t.Errorf("level = %v, want error", entries[0].Level)
		}
	}()

	Must(cptr.AsView[uint16](nil, 2))
	t.Error("Must should panic on a contract violation")
}
