package core

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/anoixa/dicom-portal/config"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

var startTime = time.Now()

// HealthHandler 依赖健康检查
type HealthHandler struct {
	checks  map[string]func(ctx context.Context) error
	timeout time.Duration
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(checks map[string]func(ctx context.Context) error, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HealthHandler{checks: checks, timeout: timeout}
}

// Handle 任一依赖异常时返回 503
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var g errgroup.Group
	for i, name := range names {
		check := h.checks[name]
		g.Go(func() error {
			results[i] = checkResult(ctx, check)
			return nil
		})
	}
	_ = g.Wait()

	status := "ok"
	httpStatus := http.StatusOK
	checks := gin.H{}
	for i, name := range names {
		checks[name] = results[i]
		if results[i] != "ok" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":  status,
		"uptime":  time.Since(startTime).Round(time.Second).String(),
		"version": config.Version,
		"checks":  checks,
	})
}

func checkResult(ctx context.Context, check func(ctx context.Context) error) string {
	if check == nil {
		return "not initialized"
	}
	if err := check(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}
