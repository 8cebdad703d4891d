package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"portal/internal/session"
)

// POST /api/auth/login
func LoginHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": []FieldError{ferr(ErrRequired, "credentials", "username, password and user_type are required")},
			})
			return
		}
		st, err := p.sessions.Login(c.Request.Context(), req.Username, req.Password, req.UserType)
		if err != nil {
			abortError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"session":       st,
			"redirect_path": st.Route,
		})
	}
}

// POST /api/auth/logout
func LogoutHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := p.sessions.Logout(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		p.Close()
		c.JSON(http.StatusOK, gin.H{"success": true, "redirect_path": "/"})
	}
}

// GET /api/auth/session
func SessionHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, p.sessions.Current())
	}
}

// RequireRole: guard страниц роли. Проверяет только наличие ключей сессии и совпадение роли
func RequireRole(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		guardRole(c, p, c.Param("role"))
	}
}

// RequireFixedRole: то же для маршрутов без :role (админка)
func RequireFixedRole(p *Portal, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		guardRole(c, p, role)
	}
}

func guardRole(c *gin.Context, p *Portal, role string) {
	if !p.guard {
		c.Next()
		return
	}
	if err := p.sessions.Guard(role); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, session.ErrNotAuthenticated) {
			status = http.StatusUnauthorized
		}
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "redirect_path": "/"})
		return
	}
	c.Next()
}
