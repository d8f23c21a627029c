package linear

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/yanqian/surgecast/internal/domain/facility"
	"github.com/yanqian/surgecast/internal/infra/artifact"
)

const maxArtifactBytes = 1 << 20

// Predictor evaluates a linear Model in process. The model can be replaced
// while requests are in flight.
type Predictor struct {
	model  atomic.Pointer[Model]
	source artifact.Source
	logger *slog.Logger
}

// New constructs a predictor serving m.
func New(m Model, logger *slog.Logger) *Predictor {
	p := &Predictor{logger: logger.With("component", "predictor.linear")}
	p.model.Store(&m)
	return p
}

// NewFromSource loads the initial model from src. Later calls to Reload read
// from the same source.
func NewFromSource(ctx context.Context, src artifact.Source, logger *slog.Logger) (*Predictor, error) {
	p := &Predictor{source: src, logger: logger.With("component", "predictor.linear")}
	if err := p.Reload(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Predict implements facility.Predictor.
func (p *Predictor) Predict(ctx context.Context, features facility.FeatureVector) (facility.PredictionVector, error) {
	if err := ctx.Err(); err != nil {
		return facility.PredictionVector{}, err
	}
	m := p.model.Load()
	x := features.Values()
	return facility.PredictionVector{
		EmergencyLoad:    math.Max(0, m.EmergencyLoad.Apply(x)),
		ICUBeds:          math.Max(0, m.ICUBeds.Apply(x)),
		VentilatorDemand: math.Max(0, m.VentilatorDemand.Apply(x)),
		StaffWorkload:    m.StaffWorkload.Class(x),
	}, nil
}

// Reload re-reads the source and swaps the model in. On failure the previous
// model stays active.
func (p *Predictor) Reload(ctx context.Context) error {
	if p.source == nil {
		return fmt.Errorf("predictor has no artifact source")
	}
	data, err := artifact.ReadAll(ctx, p.source, maxArtifactBytes)
	if err != nil {
		return fmt.Errorf("read model %s: %w", p.source.Location(), err)
	}
	m, err := Decode(data)
	if err != nil {
		return fmt.Errorf("load model %s: %w", p.source.Location(), err)
	}
	p.model.Store(&m)
	p.logger.Info("model loaded", "version", m.Version, "source", p.source.Location())
	return nil
}

// Version returns the active model version.
func (p *Predictor) Version() string {
	return p.model.Load().Version
}

// Watch reloads the model whenever its file changes. It is a no-op for
// non-file sources and blocks until ctx is cancelled.
func (p *Predictor) Watch(ctx context.Context) error {
	file, ok := p.source.(*artifact.FileSource)
	if !ok {
		<-ctx.Done()
		return nil
	}
	return artifact.WatchFile(ctx, file.Path(), func() {
		if err := p.Reload(ctx); err != nil {
			p.logger.Error("model reload failed, keeping previous model", "error", err)
		}
	}, p.logger)
}

var _ facility.Predictor = (*Predictor)(nil)
