package shared

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// OperatorContextKey 操作人在 gin.Context 中的键
const OperatorContextKey = "operator"

// GetOperator 读取请求头注入的操作人
func GetOperator(c *gin.Context) string {
	if c == nil {
		return ""
	}
	value, ok := c.Get(OperatorContextKey)
	if !ok {
		return ""
	}
	operator, _ := value.(string)
	return operator
}

// ResolveOperator 请求体显式给出的操作人优先，否则取请求头
func ResolveOperator(c *gin.Context, explicit string) string {
	if operator := strings.TrimSpace(explicit); operator != "" {
		return operator
	}
	return GetOperator(c)
}
