package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/coursecraft-backend/internal/data/db"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.LogMode)
		if err != nil {
			return err
		}
		defer log.Sync()

		svc, err := db.NewService(log, cfg.Database)
		if err != nil {
			return err
		}
		defer svc.Close()
		return svc.AutoMigrateAll()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
