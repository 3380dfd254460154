package admin

import "github.com/dujiao-next/sales-settlement/internal/provider"

// Handler 结算管理接口处理器入口
// 说明：账号、比例、订单、排除名单与结算查询共用该处理器。
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
