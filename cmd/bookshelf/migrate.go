package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"BookShelf/internal/shared/config"
)

func newMigrateCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "建表（sql 驱动）或建索引（mongodb）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver == config.StorageMemory {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "memory storage: nothing to migrate")
				return nil
			}
			// openStorage 对 sql 驱动执行 AutoMigrate，对 mongodb 建索引
			store, err := openStorage(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.close(cmd.Context()) }()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: migrated\n", cfg.Storage.Driver)
			return err
		},
	}
}
