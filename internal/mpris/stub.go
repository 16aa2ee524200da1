//go:build !linux

package mpris

import (
	"context"

	"drivesync/internal/engine"
	"drivesync/internal/reconciler"
)

// Controller is the slice of the reconciler MPRIS drives.
type Controller interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	StopPlayback(ctx context.Context) error
	Snapshot() reconciler.Snapshot
}

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ Controller, _ engine.Engine) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
