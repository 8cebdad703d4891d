// api/router.go
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portal/internal/logging"
)

// Mount: дополнительный набор маршрутов (например, dev-бэкенд на /api/v1)
type Mount func(r *gin.Engine)

func NewRouter(p *Portal, log *zap.Logger, mounts ...Mount) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.Gin(log))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/meta/roles", MetaRolesHandler(p))
		apiGroup.GET("/meta/roles/:role", MetaRoleHandler(p))

		apiGroup.POST("/auth/login", LoginHandler(p))
		apiGroup.POST("/auth/logout", LogoutHandler(p))
		apiGroup.GET("/auth/session", SessionHandler(p))

		admin := apiGroup.Group("/admin", RequireFixedRole(p, AdminRole))
		admin.POST("/reload", AdminReloadHandler(p))
		admin.GET("/lint", LintHandler(p))

		apiGroup.GET("/dashboard/:role", RequireRole(p), DashboardHandler(p))

		tables := apiGroup.Group("/tables/:role/:endpoint", RequireRole(p))
		// служебные маршруты: СНАЧАЛА
		tables.POST("/_dismiss", TableDismissHandler(p))
		// обычные CRUD
		tables.GET("", TableListHandler(p))
		tables.POST("", TableCreateHandler(p))
		tables.GET("/:id", TableRecordHandler(p))
		tables.PUT("/:id", TableUpdateHandler(p))
		tables.DELETE("/:id", TableDeleteHandler(p))
	}

	for _, m := range mounts {
		m(r)
	}
	return r
}

func RunServer(addr string, p *Portal, log *zap.Logger, mounts ...Mount) error {
	return NewRouter(p, log, mounts...).Run(addr)
}
