package logger

import "testing"

func TestNew_MemoizesInstance(t *testing.T) {
	l1, err := New(Config{Development: true})
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	if l1 == nil {
		t.Fatal("nil logger with nil error")
	}
	l2, err := New(Config{Development: false})
	if err != nil {
		t.Fatalf("second New: %v", err)
	}
	if l2 != l1 {
		t.Fatal("expected the memoized instance on repeat calls")
	}
}

func TestNop(t *testing.T) {
	if Nop() == nil {
		t.Fatal("nop logger must not be nil")
	}
}
