package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"portal/internal/backend"
	"portal/internal/dashboard"
	"portal/internal/registry"
	"portal/internal/session"
	"portal/internal/view"
)

// Backend: REST-клиент, общий для таблиц и дашбордов
type Backend interface {
	List(ctx context.Context, endpoint string) ([]backend.Record, error)
	Create(ctx context.Context, endpoint string, values backend.Record) (backend.Record, error)
	Update(ctx context.Context, endpoint, id string, values backend.Record) (backend.Record, error)
	Delete(ctx context.Context, endpoint, id string) error
	Aggregate(ctx context.Context, endpoint string) (any, error)
}

// Portal держит реестр и живые view-модели (по одной на role/endpoint).
type Portal struct {
	mu       sync.RWMutex
	reg      *registry.Registry
	regDir   string
	api      Backend
	sessions *session.Manager
	log      *zap.Logger

	noticeTTL time.Duration
	guard     bool

	views  map[string]*view.TableView // "role/endpoint" -> view
	boards map[string]*dashboard.View // role -> dashboard
}

type Option func(*Portal)

func WithLogger(l *zap.Logger) Option {
	return func(p *Portal) {
		if l != nil {
			p.log = l
		}
	}
}

func WithNoticeTTL(d time.Duration) Option {
	return func(p *Portal) { p.noticeTTL = d }
}

// WithRegistryDir: каталог, который перечитывает /api/admin/reload
func WithRegistryDir(dir string) Option {
	return func(p *Portal) { p.regDir = dir }
}

// WithGuard включает проверку сессии на страницах ролей
func WithGuard(on bool) Option {
	return func(p *Portal) { p.guard = on }
}

func NewPortal(reg *registry.Registry, api Backend, sessions *session.Manager, opts ...Option) *Portal {
	p := &Portal{
		reg:       reg,
		api:       api,
		sessions:  sessions,
		log:       zap.NewNop(),
		noticeTTL: view.DefaultNoticeTTL,
		guard:     true,
		views:     map[string]*view.TableView{},
		boards:    map[string]*dashboard.View{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Portal) Registry() *registry.Registry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reg
}

// tableView возвращает (и при необходимости создаёт) view таблицы
func (p *Portal) tableView(role, endpoint string) (*view.TableView, registry.TableDescriptor, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	role, td, ok := resolveTable(p.reg, role, endpoint)
	if !ok {
		return nil, td, false
	}
	key := role + "/" + td.Endpoint
	v, ok := p.views[key]
	if !ok {
		v = view.NewTableView(td, p.api,
			view.WithNoticeTTL(p.noticeTTL),
			view.WithLogger(p.log.With(zap.String("role", role))),
		)
		p.views[key] = v
	}
	return v, td, true
}

func (p *Portal) dashboardView(role string) (*dashboard.View, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	role, ok := resolveRole(p.reg, role)
	if !ok {
		return nil, false
	}
	b, ok := p.boards[role]
	if !ok {
		b = dashboard.New(p.reg.Metrics(role), p.api,
			dashboard.WithLogger(p.log.With(zap.String("role", role))))
		p.boards[role] = b
	}
	return b, true
}

// SetRegistry атомарно меняет реестр; старые view закрываются
func (p *Portal) SetRegistry(reg *registry.Registry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reg = reg
	p.closeLocked()
}

func (p *Portal) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *Portal) closeLocked() {
	for _, v := range p.views {
		v.Close()
	}
	for _, b := range p.boards {
		b.Close()
	}
	p.views = map[string]*view.TableView{}
	p.boards = map[string]*dashboard.View{}
}
