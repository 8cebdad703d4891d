package devbackend

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

func (s *Server) storeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	case errors.Is(err, ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{
			"errors": []FieldError{ferr(CodeVersionConflict, "version", err.Error())},
		})
	default:
		s.internal(c, op, err)
	}
}

func (s *Server) internal(c *gin.Context, op string, err error) {
	s.log.Error(op+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}

// readVersion: version из тела, 0 = не проверять
func readVersion(obj map[string]any) int64 {
	switch v := obj["version"].(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}
