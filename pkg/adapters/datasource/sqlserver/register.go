package sqlserver

import (
	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.EngineRegistration{
		Info: datasource.EngineInfo{
			Type:        "sqlserver",
			DisplayName: "Microsoft SQL Server",
			Description: "Connect to SQL Server 2017+, Azure SQL",
		},
		Factory: func(cfg *datasource.EngineConfig, logger *zap.Logger) (datasource.Adapter, error) {
			return NewAdapter(cfg, logger)
		},
	})
}
