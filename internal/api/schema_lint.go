package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portal/internal/registry"
)

// GET /api/admin/lint: проблемы текущего реестра (без перезагрузки)
func LintHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		issues := p.Registry().Lint()
		if issues == nil {
			issues = []registry.Issue{}
		}
		c.JSON(http.StatusOK, gin.H{"ok": len(issues) == 0, "issues": issues})
	}
}
