package util

import (
	"sync"
	"testing"
)

func TestSignalsEmit(t *testing.T) {
	defer Sig().Reset()
	Sig().Reset()

	var mu sync.Mutex
	var got []string

	Sig().Connect("alert.created", func(sender any, params ...any) {
		mu.Lock()
		got = append(got, sender.(string))
		mu.Unlock()
	})
	Sig().Connect("alert.created", func(sender any, params ...any) {
		mu.Lock()
		got = append(got, "second:"+sender.(string))
		mu.Unlock()
	})

	Sig().Emit("alert.created", "a-1")
	Sig().Emit("other.signal", "ignored")

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "a-1" || got[1] != "second:a-1" {
		t.Fatalf("handlers ran wrong: %v", got)
	}
}

func TestSignalsEmitWithoutHandlers(t *testing.T) {
	defer Sig().Reset()
	Sig().Reset()
	Sig().Emit("nobody.listens", nil) // must not panic
}

func TestSignalsParams(t *testing.T) {
	defer Sig().Reset()
	Sig().Reset()

	var n int
	Sig().Connect("counted", func(_ any, params ...any) {
		n = len(params)
	})
	Sig().Emit("counted", "sender", 1, 2, 3)
	if n != 3 {
		t.Fatalf("params = %d, want 3", n)
	}
}
