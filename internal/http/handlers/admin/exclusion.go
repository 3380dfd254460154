package admin

import (
	"strings"

	handlershared "github.com/dujiao-next/sales-settlement/internal/http/handlers/shared"
	"github.com/dujiao-next/sales-settlement/internal/http/response"
	"github.com/dujiao-next/sales-settlement/internal/repository"
	"github.com/dujiao-next/sales-settlement/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateExclusionRequest 新增排除请求，policy 为作用域 display / permanent
type CreateExclusionRequest struct {
	Target     string `json:"target" binding:"required"`
	TargetType string `json:"target_type"`
	Policy     string `json:"policy" binding:"required"`
	Reason     string `json:"reason"`
	ExcludedBy string `json:"excluded_by"`
}

// CreateExclusion 新增排除条目，重复返回 409
func (h *Handler) CreateExclusion(c *gin.Context) {
	var req CreateExclusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	entry, err := h.ExclusionService.Add(c.Request.Context(), service.AddExclusionInput{
		Target:     req.Target,
		TargetType: req.TargetType,
		Scope:      req.Policy,
		Reason:     req.Reason,
		ExcludedBy: handlershared.ResolveOperator(c, req.ExcludedBy),
	})
	if err != nil {
		respondServiceError(c, err, "add exclusion failed")
		return
	}
	response.Created(c, entry)
}

// RestoreExclusion 恢复排除，幂等
func (h *Handler) RestoreExclusion(c *gin.Context) {
	target := c.Param("target")
	policy := c.Query("policy")
	restored, err := h.ExclusionService.Restore(c.Request.Context(), service.RestoreInput{
		Target:     target,
		Scope:      policy,
		RestoredBy: handlershared.ResolveOperator(c, c.Query("restored_by")),
	})
	if err != nil {
		respondServiceError(c, err, "restore exclusion failed")
		return
	}
	if !restored {
		requestLog(c).Infow("exclusion_restore_noop", "target", target, "policy", policy)
	}
	response.Success(c, gin.H{
		"target":   target,
		"policy":   policy,
		"restored": restored,
	})
}

// ListExclusions 排除审计记录
func (h *Handler) ListExclusions(c *gin.Context) {
	page, pageSize := parsePage(c)
	rows, total, err := h.ExclusionService.List(repository.ExclusionListFilter{
		Target:   strings.TrimSpace(c.Query("target")),
		Scope:    strings.TrimSpace(c.Query("policy")),
		Active:   parseOptionalBool(c.Query("active")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondServiceError(c, err, "fetch exclusions failed")
		return
	}
	response.SuccessWithPage(c, rows, pagination(page, pageSize, total))
}
