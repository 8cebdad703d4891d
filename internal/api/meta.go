package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portal/internal/registry"
)

// ===== META HANDLERS =====

type metaRoleListItem struct {
	Role    string `json:"role"`
	Route   string `json:"route"`
	Tables  int    `json:"tables"`
	Metrics int    `json:"metrics"`
}

// GET /api/meta/roles
func MetaRolesHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg := p.Registry()
		roles := reg.Roles()
		out := make([]metaRoleListItem, 0, len(roles))
		for _, role := range roles {
			out = append(out, metaRoleListItem{
				Role:    role,
				Route:   reg.RouteFor(role),
				Tables:  len(reg.Tables(role)),
				Metrics: len(reg.Metrics(role)),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

type metaTable struct {
	registry.TableDescriptor
	Headers []string `json:"headers"`
}

type metaRole struct {
	Role    string                      `json:"role"`
	Route   string                      `json:"route"`
	Tables  []metaTable                 `json:"tables"`
	Metrics []registry.MetricDescriptor `json:"metrics"`
}

// GET /api/meta/roles/:role: меню роли
func MetaRoleHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg := p.Registry()
		role, ok := resolveRole(reg, c.Param("role"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
			return
		}
		tables := reg.Tables(role)
		mt := make([]metaTable, 0, len(tables))
		for _, td := range tables {
			headers := append(append([]string(nil), td.Columns...), "actions")
			mt = append(mt, metaTable{TableDescriptor: td, Headers: headers})
		}
		metrics := reg.Metrics(role)
		if metrics == nil {
			metrics = []registry.MetricDescriptor{}
		}
		c.JSON(http.StatusOK, metaRole{
			Role:    role,
			Route:   reg.RouteFor(role),
			Tables:  mt,
			Metrics: metrics,
		})
	}
}
