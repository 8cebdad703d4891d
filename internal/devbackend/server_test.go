package devbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCRUDCycle(t *testing.T) {
	s := New(NewMemoryStore())
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/v1/projects/", map[string]any{"name": "Tower", "is_active": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, "Tower", created["name"])

	w = do(t, h, http.MethodGet, "/api/v1/projects/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	w = do(t, h, http.MethodPut, "/api/v1/projects/"+id+"/", map[string]any{"name": "Tower B", "is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Tower B", updated["name"])
	assert.EqualValues(t, 2, updated["version"])

	w = do(t, h, http.MethodDelete, "/api/v1/projects/"+id+"/", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/projects/"+id+"/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodDelete, "/api/v1/projects/"+id+"/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnvelope(t *testing.T) {
	s := New(NewMemoryStore())
	require.NoError(t, s.Seed(context.Background(), "vendors", map[string]any{"name": "a"}, map[string]any{"name": "b"}))

	w := do(t, s.Handler(), http.MethodGet, "/api/v1/vendors/?envelope=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Count   int              `json:"count"`
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, 2, env.Count)
	assert.Equal(t, "a", env.Results[0]["name"])
}

func TestEnvelopeOptionAndSetAggregate(t *testing.T) {
	s := New(NewMemoryStore(), WithEnvelope(true))
	require.NoError(t, s.Seed(context.Background(), "vendors", map[string]any{"name": "a"}))
	s.SetAggregate("/dashboard/kpi/", map[string]any{"value": 95, "target": 90})

	w := do(t, s.Handler(), http.MethodGet, "/api/v1/vendors/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), `"results"`)

	w = do(t, s.Handler(), http.MethodGet, "/api/v1/dashboard/kpi/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"value":95,"target":90}`, w.Body.String())
}

func TestOrdering(t *testing.T) {
	s := New(NewMemoryStore())
	require.NoError(t, s.Seed(context.Background(), "tasks",
		map[string]any{"title": "b"},
		map[string]any{"title": "c"},
		map[string]any{"other": 1},
		map[string]any{"title": "a"},
	))

	w := do(t, s.Handler(), http.MethodGet, "/api/v1/tasks/?ordering=-title", nil)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 4)
	assert.Equal(t, "c", list[0]["title"])
	assert.Equal(t, "a", list[2]["title"])
	assert.Nil(t, list[3]["title"])
}

func TestOrderingNumeric(t *testing.T) {
	s := New(NewMemoryStore())
	require.NoError(t, s.Seed(context.Background(), "vendors",
		map[string]any{"rating": 9.0, "approved": true},
		map[string]any{"rating": 10.0, "approved": false},
		map[string]any{"rating": json.Number("2.5"), "approved": true},
	))

	w := do(t, s.Handler(), http.MethodGet, "/api/v1/vendors/?ordering=rating", nil)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.EqualValues(t, 2.5, list[0]["rating"])
	assert.EqualValues(t, 9, list[1]["rating"])
	assert.EqualValues(t, 10, list[2]["rating"])

	w = do(t, s.Handler(), http.MethodGet, "/api/v1/vendors/?ordering=approved,-rating", nil)
	list = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.EqualValues(t, 10, list[0]["rating"])
	assert.EqualValues(t, 9, list[1]["rating"])
}

func TestCmpValues(t *testing.T) {
	assert.Negative(t, cmpValues(9.0, 10.0))
	assert.Negative(t, cmpValues(json.Number("9"), 10))
	assert.Positive(t, cmpValues("b", "a"))
	assert.Negative(t, cmpValues(false, true))
	assert.Zero(t, cmpValues("x", "x"))
}

func TestRequiredAndReadonly(t *testing.T) {
	s := New(NewMemoryStore())
	s.Require("tasks", "title", "project")

	w := do(t, s.Handler(), http.MethodPost, "/api/v1/tasks/", map[string]any{"title": " ", "id": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Errors []FieldError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Errors, 3)
	assert.Equal(t, "id", body.Errors[0].Field)
	assert.Equal(t, CodeReadOnly, body.Errors[0].Code)
	assert.Equal(t, "project", body.Errors[1].Field)
	assert.Equal(t, "title", body.Errors[2].Field)
}

func TestVersionConflict(t *testing.T) {
	store := NewMemoryStore()
	s := New(store)
	rec, err := store.Create(context.Background(), "tasks", map[string]any{"title": "a"})
	require.NoError(t, err)

	w := do(t, s.Handler(), http.MethodPut, "/api/v1/tasks/"+rec.ID+"/", map[string]any{"title": "b", "version": 5})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s.Handler(), http.MethodPut, "/api/v1/tasks/"+rec.ID+"/", map[string]any{"title": "b", "version": 1})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAggregatesAndLogin(t *testing.T) {
	s := New(NewMemoryStore(), WithAggregates(DefaultAggregates()), WithUsers(DefaultUsers()...))
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/api/v1/dashboard/kpi/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"value": 87, "target": 90}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/v1/dashboard/kpi/", map[string]any{})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/auth/login/", map[string]any{"username": "qi", "password": "password", "user_type": "QI"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "/quality-inspector", resp["redirect_path"])
	assert.NotEmpty(t, resp["token"])

	w = do(t, h, http.MethodPost, "/api/v1/auth/login/", map[string]any{"username": "qi", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/auth/login/", map[string]any{"username": "qi", "password": "password", "user_type": "vendor"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/auth/login/", map[string]any{"username": "qi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownPaths(t *testing.T) {
	s := New(NewMemoryStore())
	assert.Equal(t, http.StatusNotFound, do(t, s.Handler(), http.MethodGet, "/api/v1/", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s.Handler(), http.MethodGet, "/api/v1/a/b/c/", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s.Handler(), http.MethodPatch, "/api/v1/a/", nil).Code)
}
