package mysql

import (
	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.EngineRegistration{
		Info: datasource.EngineInfo{
			Type:        "mysql",
			DisplayName: "MySQL",
			Description: "Connect to MySQL 5.7+, MariaDB, Aurora MySQL",
		},
		Factory: func(cfg *datasource.EngineConfig, logger *zap.Logger) (datasource.Adapter, error) {
			return NewAdapter(cfg, logger)
		},
	})
}
