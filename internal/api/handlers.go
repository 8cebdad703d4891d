package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portal/internal/backend"
	"portal/internal/registry"
	"portal/internal/view"
)

// ==== ответ таблицы ====

type tableResponse struct {
	Role      string           `json:"role"`
	Endpoint  string           `json:"endpoint"`
	Label     string           `json:"label"`
	Headers   []string         `json:"headers"`
	State     view.LoadState   `json:"state"`
	Page      view.Page        `json:"page"`
	RowIDs    []string         `json:"rowIds"`
	PageSizes []int            `json:"pageSizes"`
	Form      []view.FormField `json:"form"` // форма добавления
	Dialog    view.DialogMode  `json:"dialog"`
	Error     string           `json:"error,omitempty"`
	Notice    string           `json:"notice,omitempty"`
}

func buildTableResponse(role string, td registry.TableDescriptor, v *view.TableView, pp PageParams) tableResponse {
	snap := v.Snapshot()
	page := view.Paginate(snap.Rows, pp.Number, pp.Size)
	return tableResponse{
		Role:      role,
		Endpoint:  td.Endpoint,
		Label:     td.Label,
		Headers:   v.Headers(),
		State:     snap.State,
		Page:      page,
		RowIDs:    rowIDs(v, page.Rows),
		PageSizes: append([]int(nil), view.PageSizes...),
		Form:      v.Form(nil),
		Dialog:    snap.Dialog,
		Error:     snap.Error,
		Notice:    snap.Notice,
	}
}

// lookupTable: общий пролог обработчиков таблиц
func lookupTable(p *Portal, c *gin.Context) (string, registry.TableDescriptor, *view.TableView, bool) {
	v, td, ok := p.tableView(c.Param("role"), c.Param("endpoint"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"errors": []FieldError{ferr(ErrNotFound, "endpoint", "Table not found for role")},
		})
		return "", td, nil, false
	}
	return registry.NormalizeRole(c.Param("role")), td, v, true
}

// GET /api/tables/:role/:endpoint?page=&size=
// Каждый GET перечитывает коллекцию целиком.
func TableListHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, td, v, ok := lookupTable(p, c)
		if !ok {
			return
		}
		pp := parsePageParams(c.Request.URL.Query())
		status := http.StatusOK
		if err := v.Load(c.Request.Context()); err != nil {
			status = statusFor(err)
		}
		c.JSON(status, buildTableResponse(role, td, v, pp))
	}
}

// GET /api/tables/:role/:endpoint/:id: открыть запись на редактирование
func TableRecordHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _, v, ok := lookupTable(p, c)
		if !ok {
			return
		}
		rec, ok := findRecord(c, v, c.Param("id"))
		if !ok {
			return
		}
		v.OpenEdit(rec)
		c.JSON(http.StatusOK, gin.H{
			"id":     c.Param("id"),
			"record": rec,
			"form":   v.Form(nil),
		})
	}
}

// POST /api/tables/:role/:endpoint
func TableCreateHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, td, v, ok := lookupTable(p, c)
		if !ok {
			return
		}
		var req valuesReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		if errs := checkColumns(td, req.Values); len(errs) > 0 {
			c.JSON(statusForErrors(errs), gin.H{"errors": errs})
			return
		}

		v.OpenAdd()
		values := view.ParseForm(v.Form(nil), req.Values)
		if err := v.Create(c.Request.Context(), values); err != nil {
			if writeFailed(err) {
				abortError(c, err)
				return
			}
		}
		c.JSON(http.StatusCreated, buildTableResponse(role, td, v, parsePageParams(c.Request.URL.Query())))
	}
}

// PUT /api/tables/:role/:endpoint/:id
// Тело: значения формы; не переданные колонки берутся из текущей записи.
func TableUpdateHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, td, v, ok := lookupTable(p, c)
		if !ok {
			return
		}
		var req valuesReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		if errs := checkColumns(td, req.Values); len(errs) > 0 {
			c.JSON(statusForErrors(errs), gin.H{"errors": errs})
			return
		}
		rec, ok := findRecord(c, v, c.Param("id"))
		if !ok {
			return
		}

		v.OpenEdit(rec)
		values := view.ParseForm(v.Form(nil), req.Values)
		if err := v.Update(c.Request.Context(), rec, values); err != nil {
			if writeFailed(err) {
				abortError(c, err)
				return
			}
		}
		c.JSON(http.StatusOK, buildTableResponse(role, td, v, parsePageParams(c.Request.URL.Query())))
	}
}

// DELETE /api/tables/:role/:endpoint/:id?confirm=true
func TableDeleteHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, td, v, ok := lookupTable(p, c)
		if !ok {
			return
		}
		confirmed := parseBoolParam(c.Request.URL.Query(), "confirm")
		if !confirmed {
			c.JSON(http.StatusConflict, gin.H{
				"errors": []FieldError{ferr(ErrNotConfirmed, "confirm", "Delete must be confirmed with ?confirm=true")},
			})
			return
		}
		rec, ok := findRecord(c, v, c.Param("id"))
		if !ok {
			return
		}
		if err := v.Delete(c.Request.Context(), rec, true); err != nil {
			if writeFailed(err) {
				abortError(c, err)
				return
			}
		}
		c.JSON(http.StatusOK, buildTableResponse(role, td, v, parsePageParams(c.Request.URL.Query())))
	}
}

// POST /api/tables/:role/:endpoint/_dismiss: закрыть баннеры и диалог
func TableDismissHandler(p *Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, td, v, ok := lookupTable(p, c)
		if !ok {
			return
		}
		v.DismissError()
		v.DismissNotice()
		v.CloseDialog()
		c.JSON(http.StatusOK, buildTableResponse(role, td, v, parsePageParams(c.Request.URL.Query())))
	}
}

// findRecord ищет запись среди загруженных; если коллекция ещё не загружалась
// (или запись новая): одна перезагрузка.
func findRecord(c *gin.Context, v *view.TableView, id string) (backend.Record, bool) {
	if rec, ok := v.Find(id); ok {
		return rec, true
	}
	if err := v.Load(c.Request.Context()); err != nil {
		abortError(c, err)
		return nil, false
	}
	if rec, ok := v.Find(id); ok {
		return rec, true
	}
	c.JSON(http.StatusNotFound, gin.H{
		"errors": []FieldError{ferr(ErrNotFound, "id", "Record not found")},
	})
	return nil, false
}
