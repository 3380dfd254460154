package admin

import (
	"strings"
	"time"

	handlershared "github.com/dujiao-next/sales-settlement/internal/http/handlers/shared"
	"github.com/dujiao-next/sales-settlement/internal/http/response"
	"github.com/dujiao-next/sales-settlement/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateRateChangeRequest 比例变更请求
type CreateRateChangeRequest struct {
	SalesCode     string           `json:"sales_code" binding:"required"`
	NewRate       *decimal.Decimal `json:"new_rate"`
	EffectiveDate string           `json:"effective_date"`
	Reason        string           `json:"reason"`
	ChangedBy     string           `json:"changed_by"`
}

// CreateRateChange 追加比例变更，同日重复返回 409
func (h *Handler) CreateRateChange(c *gin.Context) {
	var req CreateRateChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NewRate == nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	effective, err := parseTimeNullable(req.EffectiveDate)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid effective_date", nil)
		return
	}
	input := service.RecordRateChangeInput{
		SalesCode: req.SalesCode,
		NewRate:   *req.NewRate,
		ChangedBy: handlershared.ResolveOperator(c, req.ChangedBy),
		Reason:    req.Reason,
	}
	if effective != nil {
		input.EffectiveDate = *effective
	}
	change, err := h.RateService.RecordRateChange(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err, "record rate change failed")
		return
	}
	response.Created(c, change)
}

// ListRateChanges 比例变更历史
func (h *Handler) ListRateChanges(c *gin.Context) {
	rows, err := h.RateService.ListRateChanges(strings.TrimSpace(c.Query("sales_code")))
	if err != nil {
		respondServiceError(c, err, "fetch rate changes failed")
		return
	}
	response.Success(c, rows)
}

// GetEffectiveRate 查询账号在某时刻的生效比例
func (h *Handler) GetEffectiveRate(c *gin.Context) {
	asOf, err := parseTimeNullable(c.Query("as_of"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid as_of", nil)
		return
	}
	at := time.Now().UTC()
	if asOf != nil {
		at = *asOf
	}
	resolved, err := h.RateService.RateAt(c.Query("sales_code"), at)
	if err != nil {
		respondServiceError(c, err, "resolve rate failed")
		return
	}
	response.Success(c, gin.H{
		"sales_code": strings.TrimSpace(c.Query("sales_code")),
		"as_of":      at,
		"rate":       resolved.Rate,
		"source":     resolved.Source,
		"known":      resolved.Known,
	})
}
