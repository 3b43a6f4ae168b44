package stt

import (
	"context"
	"fmt"
	"sync"
)

// Factory builds the underlying provider. It runs at most once per Lazy.
type Factory func() (Provider, error)

// Lazy is a process-wide speech model handle. The model behind it is created
// on first use and reused read-only afterwards; a failed initialization is
// remembered and returned to every caller.
type Lazy struct {
	name    string
	factory Factory

	once     sync.Once
	provider Provider
	err      error
}

// NewLazy wraps factory so that it is invoked once, on the first Transcribe.
func NewLazy(name string, factory Factory) *Lazy {
	return &Lazy{name: name, factory: factory}
}

func (l *Lazy) Name() string {
	return l.name
}

func (l *Lazy) Transcribe(ctx context.Context, mediaPath string) (*Result, error) {
	p, err := l.get()
	if err != nil {
		return nil, fmt.Errorf("initialize %s speech model: %w", l.name, err)
	}
	return p.Transcribe(ctx, mediaPath)
}

func (l *Lazy) get() (Provider, error) {
	l.once.Do(func() {
		l.provider, l.err = l.factory()
	})
	return l.provider, l.err
}
