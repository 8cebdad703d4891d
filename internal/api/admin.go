package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"portal/internal/registry"
)

// AdminRole: роль, которой открыты /api/admin/*
const AdminRole = "admin"

// POST /api/admin/reload: перечитать каталог ролей, прогнать линтер, атомарно заменить.
// registry_dir из тела допустим только внутри настроенного каталога.
func AdminReloadHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reloadReq
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
				return
			}
		}

		if p.regDir == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "registry directory is not configured"})
			return
		}
		dir, err := registryDirUnder(p.regDir, req.RegistryDir)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// 1) читаем роли
		overrides, err := registry.LoadDir(dir)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Registry load error", "details": err.Error()})
			return
		}
		next := registry.Builtin().Merge(overrides)

		// 2) линтер на новом реестре, старый пока работает
		if issues := next.Lint(); len(issues) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":       "registry has blocking issues",
				"issues":      issues,
				"hint":        "fix role files and retry",
				"registryDir": dir,
			})
			return
		}

		// 3) замена
		p.SetRegistry(next)
		p.log.Info("registry reloaded", zap.String("dir", dir), zap.Int("roles", len(next.Roles())))

		c.JSON(http.StatusOK, gin.H{
			"ok":          true,
			"registryDir": dir,
			"roles":       len(next.Roles()),
			"overrides":   len(overrides),
		})
	}
}

// registryDirUnder: относительный путь считается от root, выход за root запрещён
func registryDirUnder(root, requested string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrap(err, "resolve registry dir")
	}
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return rootAbs, nil
	}
	dir := requested
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(rootAbs, dir)
	}
	dir = filepath.Clean(dir)
	rel, err := filepath.Rel(rootAbs, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("registry_dir %q is outside %s", requested, rootAbs)
	}
	return dir, nil
}
