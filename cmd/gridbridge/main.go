// file: cmd/gridbridge/main.go

package main

import (
	"fmt"
	"os"

	"GridBridge/internal/conf"
	"GridBridge/internal/observe"

	"github.com/spf13/cobra"
)

const version = "v0.3.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "gridbridge",
	Short:         "GridBridge 表格数据连接器",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "配置文件路径")
	rootCmd.AddCommand(serveCmd, migrateCmd, explainCmd, userCmd)
}

// loadConfig 读取配置并按配置初始化日志。
func loadConfig() (*conf.Config, error) {
	cfg, err := conf.Load(configPath)
	if err != nil {
		return nil, err
	}
	observe.InitLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}
