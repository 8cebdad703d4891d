package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"portal/internal/backend"
	"portal/internal/view"
)

// statusFor переводит ошибку бэкенда/view в HTTP-статус BFF
func statusFor(err error) int {
	switch {
	case errors.Is(err, view.ErrNoRecordID):
		return http.StatusUnprocessableEntity
	case errors.Is(err, view.ErrNotConfirmed):
		return http.StatusConflict
	case errors.Is(err, view.ErrClosed):
		// сессию закрыли посреди запроса
		return http.StatusServiceUnavailable
	}
	var be *backend.Error
	if errors.As(err, &be) {
		switch be.Kind {
		case backend.KindRejected:
			if be.Status >= 400 && be.Status < 500 {
				return be.Status
			}
			return http.StatusBadRequest
		case backend.KindStatus:
			if be.Status == http.StatusUnauthorized || be.Status == http.StatusForbidden || be.Status == http.StatusNotFound {
				return be.Status
			}
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func abortError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": errorMessage(err)})
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, view.ErrNoRecordID):
		return "Cannot determine record ID"
	case errors.Is(err, view.ErrNotConfirmed):
		return "Delete must be confirmed"
	}
	return backend.Message(err)
}

// writeFailed: ошибка самой записи, а не перечитывания после неё
func writeFailed(err error) bool {
	var re *view.ReloadError
	return err != nil && !errors.As(err, &re)
}

// rowIDs: id строк страницы ("" если не определяется)
func rowIDs(v *view.TableView, rows []backend.Record) []string {
	td := v.Descriptor()
	out := make([]string, len(rows))
	for i, r := range rows {
		if id, err := view.ResolveID(td, r); err == nil {
			out[i] = id
		}
	}
	return out
}
