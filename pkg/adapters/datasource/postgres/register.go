package postgres

import (
	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.EngineRegistration{
		Info: datasource.EngineInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
			Description: "Connect to PostgreSQL 12+, Aurora PostgreSQL, Supabase",
		},
		Factory: func(cfg *datasource.EngineConfig, logger *zap.Logger) (datasource.Adapter, error) {
			return NewAdapter(cfg, logger)
		},
	})
}
