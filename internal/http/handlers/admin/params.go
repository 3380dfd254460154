package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/commission"
	handlershared "github.com/dujiao-next/sales-settlement/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

var errInvalidTimeParam = errors.New("invalid time parameter")

// parseTimeNullable 支持 RFC3339 与 2006-01-02，日期按 UTC 零点
func parseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errInvalidTimeParam
	}
	return &parsed, nil
}

func parseAggregateOptions(c *gin.Context) (commission.AggregateOptions, error) {
	var opts commission.AggregateOptions
	var err error
	if opts.From, err = parseTimeNullable(c.Query("from")); err != nil {
		return opts, err
	}
	if opts.To, err = parseTimeNullable(c.Query("to")); err != nil {
		return opts, err
	}
	if opts.AsOf, err = parseTimeNullable(c.Query("as_of")); err != nil {
		return opts, err
	}
	return opts, nil
}

func parsePage(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return handlershared.NormalizePagination(page, pageSize)
}

func parseOptionalBool(raw string) *bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}
