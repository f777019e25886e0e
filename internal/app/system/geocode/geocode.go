// Package geocode resolves a free-text address to coordinates.
//
// A Chain asks the primary provider once and the fallback provider once.
// Each provider's HTTP client retries transient failures on its own and
// stops calling an upstream that keeps failing.
package geocode

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/swarmhub/internal/domain/models"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is a definitive answer: the provider knows no such place.
	ErrNotFound = errors.New("geocode: address not found")
	// ErrCircuitOpen is returned while a provider is being left alone after
	// repeated failures.
	ErrCircuitOpen = errors.New("geocode: circuit open")
	// ErrNoProvider is returned by a Chain with nothing configured.
	ErrNoProvider = errors.New("geocode: no provider configured")
)

// Provider resolves one address.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, address, city string) (models.Coordinates, error)
}

// Result is a resolved point and the stage that produced it.
type Result struct {
	Coordinates models.Coordinates
	Source      string
}

// Chain tries Primary, then Fallback. Either may be nil.
type Chain struct {
	Primary  Provider
	Fallback Provider
	Log      *zap.Logger
}

// Geocode returns the first successful answer. When every configured
// provider fails the error is ErrNotFound only if all of them said so.
func (c *Chain) Geocode(ctx context.Context, address, city string) (Result, error) {
	if c == nil || (c.Primary == nil && c.Fallback == nil) {
		return Result{}, ErrNoProvider
	}

	var errs []error
	stages := []struct {
		p      Provider
		source string
	}{
		{c.Primary, models.GeocodePrimary},
		{c.Fallback, models.GeocodeFallback},
	}
	for _, st := range stages {
		if st.p == nil {
			continue
		}
		pt, err := st.p.Geocode(ctx, address, city)
		if err == nil {
			return Result{Coordinates: pt, Source: st.source}, nil
		}
		c.logger().Info("geocode provider failed",
			zap.String("provider", st.p.Name()),
			zap.String("city", city),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", st.p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}

	allNotFound := true
	for _, err := range errs {
		if !errors.Is(err, ErrNotFound) {
			allNotFound = false
			break
		}
	}
	if allNotFound {
		return Result{}, ErrNotFound
	}
	return Result{}, errors.Join(errs...)
}

func (c *Chain) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// ValidPoint rejects coordinates outside WGS84 bounds and the 0,0 answer
// some providers return for unparseable input.
func ValidPoint(p models.Coordinates) bool {
	if p.Lat == 0 && p.Lng == 0 {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
