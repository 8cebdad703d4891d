package devbackend

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portal/internal/registry"
)

type User struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	UserType string `yaml:"user_type" json:"user_type"`
	Email    string `yaml:"email" json:"email"`
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	UserType string `json:"user_type"`
}

// POST /api/v1/auth/login/
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "username and password are required"})
		return
	}

	s.mu.RLock()
	u, ok := s.users[req.Username]
	s.mu.RUnlock()
	if !ok || u.Password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}
	if req.UserType != "" && registry.NormalizeRole(req.UserType) != registry.NormalizeRole(u.UserType) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "User type mismatch"})
		return
	}

	token := strings.ToLower(s.ids.New())
	s.log.Info("login", zap.String("username", u.Username), zap.String("user_type", u.UserType))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user": gin.H{
			"username":  u.Username,
			"email":     u.Email,
			"user_type": u.UserType,
		},
		"redirect_path": registry.RouteFor(u.UserType),
	})
}
