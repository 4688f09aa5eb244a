// file: cmd/gridbridge/user.go

package main

import (
	"errors"
	"fmt"
	"os"

	"GridBridge/internal/adapter/sysdb"
	"GridBridge/internal/service/auth"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "管理系统用户",
}

var (
	userName string
	userRole string
)

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "创建用户，密码从环境变量 GRIDBRIDGE_USER_PASSWORD 读取",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pass := os.Getenv("GRIDBRIDGE_USER_PASSWORD")
		if pass == "" {
			return errors.New("需要设置环境变量 GRIDBRIDGE_USER_PASSWORD")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := sysdb.Open(cfg.SystemDB.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		if _, err := sysdb.Migrate(db); err != nil {
			return err
		}

		svc, err := auth.New(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		id, err := svc.CreateUser(cmd.Context(), userName, pass, userRole)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已创建用户 %s (id=%d, role=%s)\n", userName, id, userRole)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userName, "name", "", "用户名")
	userAddCmd.Flags().StringVar(&userRole, "role", auth.RoleViewer, "角色: admin / editor / viewer")
	_ = userAddCmd.MarkFlagRequired("name")
	userCmd.AddCommand(userAddCmd)
}
