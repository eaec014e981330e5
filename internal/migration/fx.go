package migration

import (
	"github.com/minrafi/invoicer/internal/config"
	invoicedomain "github.com/minrafi/invoicer/internal/invoice/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The versioned SQL migrations target postgres. The sqlite/mysql
		// dialects are for local development, where AutoMigrate suffices.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(&invoicedomain.Invoice{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
