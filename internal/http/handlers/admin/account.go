package admin

import (
	"strings"

	handlershared "github.com/dujiao-next/sales-settlement/internal/http/handlers/shared"
	"github.com/dujiao-next/sales-settlement/internal/http/response"
	"github.com/dujiao-next/sales-settlement/internal/repository"
	"github.com/dujiao-next/sales-settlement/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest 创建销售账号请求
type CreateAccountRequest struct {
	SalesCode   string           `json:"sales_code" binding:"required"`
	Tier        string           `json:"tier" binding:"required"`
	ParentCode  string           `json:"parent_code"`
	Name        string           `json:"name"`
	WechatName  string           `json:"wechat_name"`
	InitialRate *decimal.Decimal `json:"initial_rate"`
	Operator    string           `json:"operator"`
}

// PayoutRequest 已付佣金变更请求
type PayoutRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Operator string          `json:"operator"`
	Note     string          `json:"note"`
}

// CreateAccount 创建销售账号
func (h *Handler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	account, err := h.AccountService.Create(c.Request.Context(), service.CreateAccountInput{
		Code:        req.SalesCode,
		Tier:        req.Tier,
		ParentCode:  req.ParentCode,
		Name:        req.Name,
		WechatName:  req.WechatName,
		InitialRate: req.InitialRate,
		Operator:    handlershared.ResolveOperator(c, req.Operator),
	})
	if err != nil {
		respondServiceError(c, err, "create account failed")
		return
	}
	response.Created(c, account)
}

// GetAccount 获取销售账号
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.AccountService.Get(c.Param("code"))
	if err != nil {
		respondServiceError(c, err, "fetch account failed")
		return
	}
	response.Success(c, account)
}

// ListAccounts 销售账号列表
func (h *Handler) ListAccounts(c *gin.Context) {
	page, pageSize := parsePage(c)
	rows, total, err := h.AccountService.List(repository.SalesAccountListFilter{
		Tier:       strings.TrimSpace(c.Query("tier")),
		ParentCode: strings.TrimSpace(c.Query("parent_code")),
		Keyword:    strings.TrimSpace(c.Query("keyword")),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondServiceError(c, err, "fetch accounts failed")
		return
	}
	response.SuccessWithPage(c, rows, pagination(page, pageSize, total))
}

// ListTeam 一级销售名下的二级账号
func (h *Handler) ListTeam(c *gin.Context) {
	rows, err := h.AccountService.ListTeam(c.Param("code"))
	if err != nil {
		respondServiceError(c, err, "fetch team failed")
		return
	}
	response.Success(c, rows)
}

// RecordPayout 记录一笔佣金支付
func (h *Handler) RecordPayout(c *gin.Context) {
	var req PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	account, err := h.AccountService.RecordPayout(c.Request.Context(), service.PayoutInput{
		SalesCode: c.Param("code"),
		Amount:    req.Amount,
		Operator:  handlershared.ResolveOperator(c, req.Operator),
		Note:      req.Note,
	})
	if err != nil {
		respondServiceError(c, err, "record payout failed")
		return
	}
	response.Created(c, account)
}

// SetPaidCommission 校正已付佣金
func (h *Handler) SetPaidCommission(c *gin.Context) {
	var req PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	account, err := h.AccountService.SetPaidCommission(c.Request.Context(), service.PayoutInput{
		SalesCode: c.Param("code"),
		Amount:    req.Amount,
		Operator:  handlershared.ResolveOperator(c, req.Operator),
		Note:      req.Note,
	})
	if err != nil {
		respondServiceError(c, err, "update paid commission failed")
		return
	}
	response.Success(c, account)
}

// ListPayouts 已付佣金流水
func (h *Handler) ListPayouts(c *gin.Context) {
	page, pageSize := parsePage(c)
	rows, total, err := h.AccountService.ListPayouts(c.Param("code"), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "fetch payouts failed")
		return
	}
	response.SuccessWithPage(c, rows, pagination(page, pageSize, total))
}
