package provider

import (
	"context"
	"errors"

	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// Source is one known provider injection point. Probe returns the provider
// exposed there, or ErrProviderNotFound when nothing is injected at that
// location. Probe must be side-effect free: detection happens repeatedly.
type Source struct {
	Name  Origin
	Probe func(ctx context.Context) (Provider, error)
}

// Detector scans a fixed, ordered list of sources and returns the first
// provider found. Ordering is a tie-break, not a merge: once a source
// matches, later sources are never probed.
type Detector struct {
	sources []Source
}

// NewDetector creates a detector over the given sources, probed in order.
func NewDetector(sources ...Source) *Detector {
	return &Detector{sources: sources}
}

// Detect scans the sources in priority order. Idempotent and safe to call
// repeatedly. Returns ErrProviderNotFound (with an install suggestion) when
// no source exposes a provider.
func (d *Detector) Detect(ctx context.Context) (*Handle, error) {
	var lastErr error

	for _, src := range d.sources {
		p, err := src.Probe(ctx)
		if err != nil {
			if errors.Is(err, shadeerr.ErrProviderNotFound) {
				continue
			}
			// A source that exists but misbehaves still means no usable
			// provider at that location; remember the cause and keep going.
			lastErr = err
			continue
		}
		return NewHandle(src.Name, p), nil
	}

	if lastErr != nil {
		// Still a not-found outcome for callers, with the probe failure
		// attached as diagnostic detail.
		return nil, shadeerr.WithDetails(shadeerr.ErrProviderNotFound,
			map[string]string{"probe_error": lastErr.Error()})
	}
	return nil, shadeerr.ErrProviderNotFound
}
