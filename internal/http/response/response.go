package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const requestIDKey = "request_id"

// Response 统一响应结构
type Response struct {
	StatusCode int         `json:"status_code"` // 业务状态码
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{StatusCode: CodeOK, Msg: "success", Data: data})
}

// Created 创建成功，HTTP 状态与业务码均为 201
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{StatusCode: CodeCreated, Msg: "created", Data: data})
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, Response{
		StatusCode: CodeOK,
		Msg:        "success",
		Data:       data,
		Pagination: &pagination,
	})
}

// Error 错误响应，data 中附带 request_id 便于排查
func Error(c *gin.Context, code int, msg string) {
	c.JSON(httpStatusFor(code), Response{
		StatusCode: code,
		Msg:        msg,
		Data:       requestIDData(c),
	})
}

// httpStatusFor 业务码默认走 HTTP 200，写冲突返回 409
func httpStatusFor(code int) int {
	if code == CodeConflict {
		return http.StatusConflict
	}
	return http.StatusOK
}

func requestIDData(c *gin.Context) interface{} {
	if c == nil {
		return nil
	}
	if id := c.GetString(requestIDKey); id != "" {
		return gin.H{requestIDKey: id}
	}
	return nil
}
