package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/constants"
	"github.com/dujiao-next/sales-settlement/internal/http/response"
	"github.com/dujiao-next/sales-settlement/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest 订单录入请求
type CreateOrderRequest struct {
	OrderNo             string           `json:"order_no"`
	SalesCode           string           `json:"sales_code" binding:"required"`
	Amount              decimal.Decimal  `json:"amount"`
	ActualPaymentAmount *decimal.Decimal `json:"actual_payment_amount"`
	PaymentCurrency     string           `json:"payment_currency"`
	IsTrial             bool             `json:"is_trial"`
	CustomerWechat      string           `json:"customer_wechat"`
	CreatedAt           *time.Time       `json:"created_at"`
}

// TransitionOrderRequest 订单状态流转请求
type TransitionOrderRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// CreateOrder 录入订单
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	order, err := h.OrderService.Create(c.Request.Context(), service.CreateOrderInput{
		OrderNo:             req.OrderNo,
		SalesCode:           req.SalesCode,
		Amount:              req.Amount,
		ActualPaymentAmount: req.ActualPaymentAmount,
		Currency:            req.PaymentCurrency,
		IsTrial:             req.IsTrial,
		CustomerWechat:      req.CustomerWechat,
		CreatedAt:           req.CreatedAt,
	})
	if err != nil {
		respondServiceError(c, err, "create order failed")
		return
	}
	response.Created(c, order)
}

// TransitionOrder 推进订单状态
func (h *Handler) TransitionOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	var req TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	order, err := h.OrderService.Transition(c.Request.Context(), service.TransitionInput{
		OrderID: uint(id),
		Status:  req.Status,
		Reason:  req.Reason,
	})
	if err != nil {
		respondServiceError(c, err, "transition order failed")
		return
	}
	response.Success(c, order)
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	order, err := h.OrderService.Get(uint(id))
	if err != nil {
		respondServiceError(c, err, "fetch order failed")
		return
	}
	response.Success(c, order)
}

// ListOrders 原始订单列表，默认展示口径
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := parsePage(c)
	from, err := parseTimeNullable(c.Query("from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid from", nil)
		return
	}
	to, err := parseTimeNullable(c.Query("to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid to", nil)
		return
	}
	rows, total, err := h.OrderService.List(service.OrderListFilter{
		Policy:    c.DefaultQuery("policy", constants.PolicyDisplay),
		SalesCode: strings.TrimSpace(c.Query("sales_code")),
		Status:    strings.TrimSpace(c.Query("status")),
		From:      from,
		To:        to,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		respondServiceError(c, err, "fetch orders failed")
		return
	}
	response.SuccessWithPage(c, rows, pagination(page, pageSize, total))
}
