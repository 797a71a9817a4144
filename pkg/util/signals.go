package util

import "sync"

// SignalHandler receives the emitting object plus any extra parameters.
type SignalHandler func(sender any, params ...any)

// Signals is a tiny in-process signal hub used to decouple side effects
// (mail, logging) from the code paths that trigger them.
type Signals struct {
	mu       sync.RWMutex
	handlers map[string][]SignalHandler
}

var sig = &Signals{handlers: make(map[string][]SignalHandler)}

// Sig returns the global signal hub.
func Sig() *Signals { return sig }

func (s *Signals) Connect(name string, h SignalHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = append(s.handlers[name], h)
}

// Emit calls every handler connected to name, synchronously and in order.
// Handlers that need to block should spawn their own goroutine.
func (s *Signals) Emit(name string, sender any, params ...any) {
	s.mu.RLock()
	hs := make([]SignalHandler, len(s.handlers[name]))
	copy(hs, s.handlers[name])
	s.mu.RUnlock()
	for _, h := range hs {
		h(sender, params...)
	}
}

// Reset drops all registered handlers. Tests only.
func (s *Signals) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = make(map[string][]SignalHandler)
}
