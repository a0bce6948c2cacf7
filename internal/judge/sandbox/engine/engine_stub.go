//go:build !linux

package engine

import (
	"context"
	"fmt"
)

type stubEngine struct{}

func NewEngine(cfg Config) (Engine, error) {
	return &stubEngine{}, nil
}

func (s *stubEngine) Execute(ctx context.Context, req Request) (Outcome, error) {
	return Outcome{}, fmt.Errorf("process engine is only supported on linux")
}

// SignalName returns a generic name outside Linux.
func SignalName(sig int) string {
	return fmt.Sprintf("signal %d", sig)
}
