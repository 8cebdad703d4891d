package devbackend

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server: локальный REST-бэкенд с контрактом {base}/{endpoint}/[{id}/].
// Нужен для разработки и тестов портала.
type Server struct {
	store Store
	log   *zap.Logger

	mu         sync.RWMutex
	required   map[string][]string // endpoint -> обязательные поля
	aggregates map[string]any      // "dashboard/summary" -> JSON
	users      map[string]User
	envelope   bool
	ids        *IDGen

	engine *gin.Engine
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithEnvelope: всегда отвечать {"count", "results"} вместо массива
func WithEnvelope(on bool) Option {
	return func(s *Server) { s.envelope = on }
}

func WithUsers(users ...User) Option {
	return func(s *Server) {
		for _, u := range users {
			s.users[u.Username] = u
		}
	}
}

func WithAggregates(aggs map[string]any) Option {
	return func(s *Server) {
		for k, v := range aggs {
			s.aggregates[strings.Trim(k, "/")] = v
		}
	}
}

func New(store Store, opts ...Option) *Server {
	s := &Server{
		store:      store,
		log:        zap.NewNop(),
		required:   make(map[string][]string),
		aggregates: make(map[string]any),
		users:      make(map[string]User),
		ids:        NewIDGen(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.Named("devbackend")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Any("/api/v1/*path", s.dispatch)
	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Mount вешает бэкенд на чужой gin-движок (портал и бэкенд в одном процессе)
func (s *Server) Mount(r *gin.Engine) {
	r.Any("/api/v1/*path", s.dispatch)
}

// Require задаёт обязательные поля endpoint'а
func (s *Server) Require(endpoint string, fields ...string) {
	s.mu.Lock()
	s.required[strings.Trim(endpoint, "/")] = append([]string(nil), fields...)
	s.mu.Unlock()
}

func (s *Server) SetAggregate(endpoint string, v any) {
	s.mu.Lock()
	s.aggregates[strings.Trim(endpoint, "/")] = v
	s.mu.Unlock()
}

// Seed кладёт записи напрямую в хранилище
func (s *Server) Seed(ctx context.Context, endpoint string, rows ...map[string]any) error {
	for _, r := range rows {
		if _, err := s.store.Create(ctx, strings.Trim(endpoint, "/"), r); err != nil {
			return err
		}
	}
	return nil
}

// ==== маршрутизация ====

// dispatch разбирает /api/v1/<endpoint>/[<id>/] сам: агрегаты могут
// содержать "/" в имени, это не ложится на статические маршруты gin.
func (s *Server) dispatch(c *gin.Context) {
	parts := splitPath(c.Param("path"))
	if len(parts) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	full := strings.Join(parts, "/")
	method := c.Request.Method

	if full == "auth/login" {
		if method != http.MethodPost {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "Method not allowed."})
			return
		}
		s.login(c)
		return
	}

	s.mu.RLock()
	agg, isAgg := s.aggregates[full]
	s.mu.RUnlock()
	if isAgg {
		if method != http.MethodGet {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "Method not allowed."})
			return
		}
		c.JSON(http.StatusOK, agg)
		return
	}

	switch {
	case len(parts) == 1 && method == http.MethodGet:
		s.list(c, parts[0])
	case len(parts) == 1 && method == http.MethodPost:
		s.create(c, parts[0])
	case len(parts) == 2 && method == http.MethodGet:
		s.getOne(c, parts[0], parts[1])
	case len(parts) == 2 && method == http.MethodPut:
		s.update(c, parts[0], parts[1])
	case len(parts) == 2 && method == http.MethodDelete:
		s.remove(c, parts[0], parts[1])
	case len(parts) <= 2:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "Method not allowed."})
	default:
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	}
}

// GET /api/v1/:endpoint/
func (s *Server) list(c *gin.Context, endpoint string) {
	recs, err := s.store.List(c.Request.Context(), endpoint)
	if err != nil {
		s.internal(c, "list", err)
		return
	}
	if keys := parseOrdering(c.Query("ordering")); len(keys) > 0 {
		sortRecords(recs, keys)
	}
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, flatten(r))
	}
	if s.envelope || truthy(c.Query("envelope")) {
		c.JSON(http.StatusOK, gin.H{"count": len(out), "next": nil, "previous": nil, "results": out})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/v1/:endpoint/:id/
func (s *Server) getOne(c *gin.Context, endpoint, id string) {
	rec, err := s.store.Get(c.Request.Context(), endpoint, id)
	if err != nil {
		s.storeError(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, flatten(rec))
}

// POST /api/v1/:endpoint/
func (s *Server) create(c *gin.Context, endpoint string) {
	var obj map[string]any
	if err := c.ShouldBindJSON(&obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid JSON"})
		return
	}
	if ers := s.validate(endpoint, obj); len(ers) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": ers})
		return
	}
	rec, err := s.store.Create(c.Request.Context(), endpoint, obj)
	if err != nil {
		s.internal(c, "create", err)
		return
	}
	c.JSON(http.StatusCreated, flatten(rec))
}

// PUT /api/v1/:endpoint/:id/
func (s *Server) update(c *gin.Context, endpoint, id string) {
	var obj map[string]any
	if err := c.ShouldBindJSON(&obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid JSON"})
		return
	}
	// версию читаем до того, как checkSystem её вырежет
	expVer := readVersion(obj)
	// id в теле PUT допустим, если совпадает с путём
	if v, ok := obj["id"]; ok {
		if sv, _ := v.(string); sv == id {
			delete(obj, "id")
		}
	}
	if ers := s.validate(endpoint, obj); len(ers) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": ers})
		return
	}
	rec, err := s.store.Update(c.Request.Context(), endpoint, id, obj, expVer)
	if err != nil {
		s.storeError(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, flatten(rec))
}

// DELETE /api/v1/:endpoint/:id/
func (s *Server) remove(c *gin.Context, endpoint, id string) {
	if err := s.store.Delete(c.Request.Context(), endpoint, id); err != nil {
		s.storeError(c, "delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) validate(endpoint string, obj map[string]any) []FieldError {
	ers := checkSystem(obj)
	s.mu.RLock()
	req := s.required[endpoint]
	s.mu.RUnlock()
	ers = append(ers, checkRequired(req, obj)...)
	sort.SliceStable(ers, func(i, j int) bool { return ers[i].Field < ers[j].Field })
	return ers
}
