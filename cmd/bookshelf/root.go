package main

import (
	"github.com/spf13/cobra"

	"BookShelf/internal/shared/config"
)

const appName = "bookshelf"

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          appName,
		Short:        "BookShelf 图书服务",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "配置文件路径，默认向上查找 configs/conf.yml")

	loadConfig := func() (*config.Config, error) {
		return config.Load(cfgPath)
	}
	root.AddCommand(
		newServeCmd(loadConfig),
		newMigrateCmd(loadConfig),
		newTokenCmd(loadConfig),
	)
	return root
}
