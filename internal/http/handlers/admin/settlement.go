package admin

import (
	"strconv"

	"github.com/dujiao-next/sales-settlement/internal/constants"
	handlershared "github.com/dujiao-next/sales-settlement/internal/http/handlers/shared"
	"github.com/dujiao-next/sales-settlement/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetSettlement 单个账号结算快照，默认展示口径
func (h *Handler) GetSettlement(c *gin.Context) {
	settlement, err := h.SettlementService.GetSettlement(
		c.Request.Context(),
		c.Query("sales_code"),
		c.DefaultQuery("policy", constants.PolicyDisplay),
	)
	if err != nil {
		respondServiceError(c, err, "fetch settlement failed")
		return
	}
	response.Success(c, settlement)
}

// ListSettlements 全部账号结算快照
func (h *Handler) ListSettlements(c *gin.Context) {
	rows, err := h.SettlementService.ListSettlements(c.Request.Context(), c.DefaultQuery("policy", constants.PolicyStatistics))
	if err != nil {
		respondServiceError(c, err, "fetch settlements failed")
		return
	}
	response.Success(c, rows)
}

// Aggregate 按口径汇总，返回 sales_code -> 汇总
func (h *Handler) Aggregate(c *gin.Context) {
	opts, err := parseAggregateOptions(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid from/to/as_of", nil)
		return
	}
	rollups, err := h.SettlementService.Aggregate(c.Request.Context(), c.DefaultQuery("policy", constants.PolicyStatistics), opts)
	if err != nil {
		respondServiceError(c, err, "aggregate failed")
		return
	}
	response.Success(c, rollups)
}

// Leaderboard 统计口径排行
func (h *Handler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit <= 0 {
		limit = 10
	}
	rows, err := h.SettlementService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err, "fetch leaderboard failed")
		return
	}
	response.Success(c, rows)
}

// Summary 统计口径全局汇总
func (h *Handler) Summary(c *gin.Context) {
	opts, err := parseAggregateOptions(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid from/to/as_of", nil)
		return
	}
	summary, err := h.SettlementService.Summary(c.Request.Context(), opts)
	if err != nil {
		respondServiceError(c, err, "fetch summary failed")
		return
	}
	response.Success(c, summary)
}

func pagination(page, pageSize int, total int64) response.Pagination {
	return response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.TotalPages(total, pageSize),
	}
}
