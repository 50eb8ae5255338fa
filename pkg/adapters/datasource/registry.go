package datasource

import (
	"sync"

	"go.uber.org/zap"
)

// EngineInfo describes a registered engine for discovery.
type EngineInfo struct {
	Type        string `json:"type"`         // "mysql", "postgres", "sqlserver"
	DisplayName string `json:"display_name"` // "MySQL", "PostgreSQL"
	Description string `json:"description"`
}

// EngineRegistration contains info plus the factory for creating the adapter.
type EngineRegistration struct {
	Info    EngineInfo
	Factory func(cfg *EngineConfig, logger *zap.Logger) (Adapter, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]EngineRegistration)
)

// Register is called by each engine package's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg EngineRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredEngines returns info for all registered engines.
func RegisteredEngines() []EngineInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EngineInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	return result
}

// GetFactory returns the adapter factory for an engine type.
// Returns nil if the type is not registered.
func GetFactory(engineType string) func(cfg *EngineConfig, logger *zap.Logger) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[engineType]; ok {
		return reg.Factory
	}
	return nil
}
