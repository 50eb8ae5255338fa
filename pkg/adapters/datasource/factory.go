package datasource

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
)

// AdapterFactory creates adapters from the registry. Engine selection happens
// once at startup via configuration, never by runtime type inspection.
type AdapterFactory interface {
	// NewAdapter creates an adapter for the configured engine type.
	NewAdapter(cfg *EngineConfig, logger *zap.Logger) (Adapter, error)

	// ListEngines returns info for all registered engine types.
	ListEngines() []EngineInfo
}

type registryFactory struct{}

// NewAdapterFactory returns a factory that uses the global registry.
func NewAdapterFactory() AdapterFactory {
	return &registryFactory{}
}

func (f *registryFactory) NewAdapter(cfg *EngineConfig, logger *zap.Logger) (Adapter, error) {
	factory := GetFactory(cfg.Engine)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownEngine, cfg.Engine)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", cfg.Engine, err)
	}
	return factory(cfg, logger)
}

func (f *registryFactory) ListEngines() []EngineInfo {
	return RegisteredEngines()
}

// Ensure registryFactory implements AdapterFactory at compile time.
var _ AdapterFactory = (*registryFactory)(nil)
