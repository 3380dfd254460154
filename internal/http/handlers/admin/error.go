package admin

import (
	handlershared "github.com/dujiao-next/sales-settlement/internal/http/handlers/shared"
	"github.com/dujiao-next/sales-settlement/internal/http/response"
	"github.com/dujiao-next/sales-settlement/internal/lock"
	"github.com/dujiao-next/sales-settlement/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// settlementErrorRules 业务错误到响应码的映射
var settlementErrorRules = []handlershared.MappedError{
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Msg: "resource not found"},
	{Target: service.ErrMissingAccount, Code: response.CodeNotFound, Msg: "sales account not found"},
	{Target: service.ErrAccountExists, Code: response.CodeConflict, Msg: "sales account already exists"},
	{Target: service.ErrDuplicateEffectiveDate, Code: response.CodeConflict, Msg: "a rate change already exists for this effective date"},
	{Target: service.ErrAlreadyExcluded, Code: response.CodeConflict, Msg: "target is already excluded under this policy"},
	{Target: service.ErrOrderExists, Code: response.CodeConflict, Msg: "order already exists"},
	{Target: service.ErrInvalidTransition, Code: response.CodeConflict, Msg: "invalid order status transition"},
	{Target: lock.ErrLockBusy, Code: response.CodeConflict, Msg: "resource is busy, retry later"},
	{Target: service.ErrRateOutOfRange, Code: response.CodeBadRequest, Msg: "commission rate must be between 0 and 1"},
	{Target: service.ErrInvalidSalesCode, Code: response.CodeBadRequest, Msg: "invalid sales code"},
	{Target: service.ErrInvalidTier, Code: response.CodeBadRequest, Msg: "tier must be primary or secondary"},
	{Target: service.ErrInvalidParent, Code: response.CodeBadRequest, Msg: "parent must be an existing primary account"},
	{Target: service.ErrInvalidAmount, Code: response.CodeBadRequest, Msg: "invalid order amount"},
	{Target: service.ErrInvalidPayoutAmount, Code: response.CodeBadRequest, Msg: "invalid payout amount"},
	{Target: service.ErrUnsupportedCurrency, Code: response.CodeBadRequest, Msg: "unsupported currency"},
	{Target: service.ErrInvalidScope, Code: response.CodeBadRequest, Msg: "policy must be display or permanent"},
	{Target: service.ErrInvalidPolicy, Code: response.CodeBadRequest, Msg: "policy must be display or statistics"},
	{Target: service.ErrInvalidTargetType, Code: response.CodeBadRequest, Msg: "target_type must be sales_code or wechat"},
	{Target: service.ErrInvalidTarget, Code: response.CodeBadRequest, Msg: "invalid exclusion target"},
}

func respondServiceError(c *gin.Context, err error, fallbackMsg string) {
	handlershared.RespondWithMappedError(c, err, settlementErrorRules, response.CodeInternal, fallbackMsg)
}
