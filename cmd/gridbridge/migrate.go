// file: cmd/gridbridge/migrate.go

package main

import (
	"fmt"
	"log/slog"

	"GridBridge/internal/adapter/sysdb"

	"github.com/spf13/cobra"
)

var migrateDown int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "升级 (或用 --down 回退) 系统数据库表结构",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := sysdb.Open(cfg.SystemDB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		if migrateDown > 0 {
			if err := sysdb.Rollback(db, migrateDown); err != nil {
				return err
			}
			slog.Info("系统表结构已回退", "steps", migrateDown)
			return nil
		}
		version, err := sysdb.Migrate(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "系统表结构版本: %d\n", version)
		return nil
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateDown, "down", 0, "回退的迁移步数")
}
