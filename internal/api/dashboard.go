package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portal/internal/dashboard"
	"portal/internal/registry"
)

type metricResponse struct {
	dashboard.Result
	Summary *dashboard.Summary `json:"summary,omitempty"`
}

// GET /api/dashboard/:role: все метрики роли, у каждой свой статус.
// Ошибка одной метрики не делает ответ не-200.
func DashboardHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, ok := p.dashboardView(c.Param("role"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
			return
		}
		results := b.Load(c.Request.Context())
		out := make([]metricResponse, 0, len(results))
		failed := 0
		for _, r := range results {
			m := metricResponse{Result: r}
			if r.Status == dashboard.StatusReady {
				s := dashboard.Summarize(r.Data)
				if s.Count > 0 {
					m.Summary = &s
				}
			} else if r.Status == dashboard.StatusFailed {
				failed++
			}
			out = append(out, m)
		}
		c.JSON(http.StatusOK, gin.H{
			"role":    registry.NormalizeRole(c.Param("role")),
			"metrics": out,
			"failed":  failed,
		})
	}
}
