// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/receiptvault/pkg/app"
	"github.com/yeisme/receiptvault/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "receiptvault",
		Short: "A file storage and naming service for receipt documents",
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.NewApp(configPath).Run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print verbose debug output")

	// config/db 子命令需要已加载的配置；serve 由 app 自行初始化
	cobra.OnInitialize(func() {
		if configs.GetViper() == nil {
			_ = configs.InitConfig(configPath)
		}
	})

	rootCmd.AddCommand(serveCmd)
	registerConfigsCommands()
	registerDBCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
