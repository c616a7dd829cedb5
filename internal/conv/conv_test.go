package conv

import (
	"math"
	"testing"
)

func TestIntToUint32(t *testing.T) {
	if got := IntToUint32(42); got != 42 {
		t.Errorf("IntToUint32(42) = %d", got)
	}
	expectPanic(t, "negative", func() { IntToUint32(-1) })
	if math.MaxInt > math.MaxUint32 {
		var u uint = math.MaxUint32
		n := int(u)
		expectPanic(t, "too large", func() { IntToUint32(n + 1) })
	}
}

func expectPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	f()
}

func TestStringBytes(t *testing.T) {
	for _, s := range []string{"", "a", "hello, world"} {
		b := StringBytes(s)
		if string(b) != s || len(b) != len(s) {
			t.Errorf("StringBytes(%q) = %q", s, b)
		}
	}
	allocs := testing.AllocsPerRun(100, func() {
		_ = StringBytes("hello, world")
	})
	if allocs != 0 {
		t.Errorf("StringBytes() allocs = %v, want 0", allocs)
	}
}
