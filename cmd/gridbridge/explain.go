// file: cmd/gridbridge/explain.go

package main

import (
	"fmt"
	"net/url"

	"GridBridge/internal/adapter/bridge"
	"GridBridge/internal/adapter/dialect"
	"GridBridge/internal/conf"
	"GridBridge/internal/core/domain"
	"GridBridge/internal/transport/http/router"

	"github.com/spf13/cobra"
)

var (
	explainGrid  string
	explainQuery string
)

// explainCmd 离线打印数据请求对应的 SQL，不连接数据库。
var explainCmd = &cobra.Command{
	Use:     "explain",
	Short:   "打印表格数据请求将要执行的 SQL (参数内联)",
	Example: `  gridbridge explain --grid items --query 'filter[name]=pen&sort=-price&count=20'`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		stmt, err := explain(cfg, explainGrid, explainQuery)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), stmt)
		return nil
	},
}

func init() {
	explainCmd.Flags().StringVar(&explainGrid, "grid", "", "配置文件中的表格名称")
	explainCmd.Flags().StringVar(&explainQuery, "query", "", "与 HTTP 接口相同的查询串")
	_ = explainCmd.MarkFlagRequired("grid")
}

func explain(cfg *conf.Config, grid, query string) (string, error) {
	var def *domain.GridDefinition
	for i := range cfg.Grids {
		if cfg.Grids[i].Name == grid {
			def = &cfg.Grids[i]
			break
		}
	}
	if def == nil {
		return "", fmt.Errorf("配置文件中没有表格 '%s'", grid)
	}
	cc, ok := cfg.Connection(def.Connection)
	if !ok {
		return "", fmt.Errorf("表格 '%s' 引用了未定义的连接 '%s'", grid, def.Connection)
	}
	d, err := dialect.Lookup(cc.Dialect)
	if err != nil {
		return "", err
	}
	fields, err := def.FieldMap()
	if err != nil {
		return "", err
	}
	q, err := url.ParseQuery(query)
	if err != nil {
		return "", fmt.Errorf("无法解析查询串: %w", err)
	}
	req, err := router.Describe(def.Source, q)
	if err != nil {
		return "", err
	}
	if w := req.Window(); w.Limit == 0 {
		req.SetLimit(w.Offset, cfg.Bridge.DefaultPageSize)
	}

	b := bridge.New(nil, d, fields, bridge.WithMaxLimit(cfg.Bridge.MaxPageSize), bridge.WithSequence(def.Sequence))
	return b.Explain(req)
}
