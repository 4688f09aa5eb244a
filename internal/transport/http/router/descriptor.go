// file: internal/transport/http/router/descriptor.go
package router

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"GridBridge/internal/core/domain"
)

var errBadQuery = errors.New("查询参数无效")

// Describe 把表格端的查询参数翻译为请求描述：
//
//	posStart / count       分页窗口
//	filter[f]=v, op[f]=ge  过滤条件，缺省操作符为 like
//	sort=-f,g              排序，"-" 前缀表示降序
//	dhx_sort[f]=asc|des    表格端列头排序
//	parent=v               关联字段取值
//
// 数据源先以表格名占位，由 grid.Service 替换为定义中的源表。
func Describe(grid string, q url.Values) (*domain.RequestDescriptor, error) {
	req, err := domain.NewRequest(grid)
	if err != nil {
		return nil, err
	}

	offset, err := intParam(q, "posStart")
	if err != nil {
		return nil, err
	}
	limit, err := intParam(q, "count")
	if err != nil {
		return nil, err
	}
	req.SetLimit(offset, limit)

	for _, field := range bracketKeys(q, "filter") {
		op, err := domain.ParseOperator(q.Get("op[" + field + "]"))
		if err != nil {
			return nil, err
		}
		req.AddFilter(field, op, q.Get("filter["+field+"]"))
	}

	for _, part := range strings.Split(q.Get("sort"), ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.HasPrefix(part, "-"):
			req.SetSort(part[1:], domain.Desc)
		default:
			req.SetSort(strings.TrimPrefix(part, "+"), domain.Asc)
		}
	}
	for _, field := range bracketKeys(q, "dhx_sort") {
		req.SetSort(field, domain.ParseDirection(q.Get("dhx_sort["+field+"]")))
	}

	if q.Has("parent") {
		req.SetRelation(q.Get("parent"))
	}
	return req, nil
}

func intParam(q url.Values, name string) (int, error) {
	s := q.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", errBadQuery, name, s)
	}
	return n, nil
}

// bracketKeys 返回 prefix[key] 形式参数中的 key，按字典序。
func bracketKeys(q url.Values, prefix string) []string {
	var keys []string
	for k := range q {
		if strings.HasPrefix(k, prefix+"[") && strings.HasSuffix(k, "]") {
			if key := k[len(prefix)+1 : len(k)-1]; key != "" {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
