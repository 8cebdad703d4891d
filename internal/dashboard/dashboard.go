package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"portal/internal/backend"
	"portal/internal/registry"
)

// Fetcher: источник агрегатов
type Fetcher interface {
	Aggregate(ctx context.Context, endpoint string) (any, error)
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Result: состояние одной метрики; метрики живут независимо
type Result struct {
	Metric    registry.MetricDescriptor `json:"metric"`
	Status    Status                    `json:"status"`
	Data      any                       `json:"data,omitempty"`
	Error     string                    `json:"error,omitempty"`
	UpdatedAt time.Time                 `json:"updatedAt,omitempty"`
}

const DefaultConcurrency = 4

// View: дашборд роли. Каждая метрика грузится параллельно и
// сохраняется сразу, ошибка одной не трогает остальные.
type View struct {
	metrics []registry.MetricDescriptor
	api     Fetcher
	log     *zap.Logger
	limit   int
	now     func() time.Time

	mu      sync.Mutex
	results map[string]*Result
	gen     uint64
	cancel  context.CancelFunc
	cur     *batch
}

// batch: один fan-out; done закрывается, когда его ответы разложены
type batch struct {
	done       chan struct{}
	superseded bool
}

type Option func(*View)

func WithLogger(l *zap.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.log = l
		}
	}
}

func WithConcurrency(n int) Option {
	return func(v *View) {
		if n > 0 {
			v.limit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *View) {
		if now != nil {
			v.now = now
		}
	}
}

func New(metrics []registry.MetricDescriptor, api Fetcher, opts ...Option) *View {
	v := &View{
		metrics: append([]registry.MetricDescriptor(nil), metrics...),
		api:     api,
		log:     zap.NewNop(),
		limit:   DefaultConcurrency,
		now:     time.Now,
		results: make(map[string]*Result, len(metrics)),
	}
	for _, o := range opts {
		o(v)
	}
	for _, m := range v.metrics {
		v.results[m.Name] = &Result{Metric: m, Status: StatusIdle}
	}
	return v
}

// Load запускает fan-out по всем метрикам. Предыдущий незавершённый
// Load отменяется, его ответы выбрасываются, а его вызывающий дожидается
// самого нового батча. Отмена ctx прерывает только ожидание.
func (v *View) Load(ctx context.Context) []Result {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	my := v.gen
	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b := &batch{done: make(chan struct{})}
	v.cancel = cancel
	v.cur = b
	for _, m := range v.metrics {
		r := v.results[m.Name]
		r.Status = StatusLoading
		r.Error = ""
	}
	v.mu.Unlock()

	go v.run(lctx, cancel, my, b)
	v.await(ctx, b)
	return v.Results()
}

func (v *View) run(ctx context.Context, cancel context.CancelFunc, my uint64, b *batch) {
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.limit)
	for _, m := range v.metrics {
		m := m
		g.Go(func() error {
			data, err := v.api.Aggregate(gctx, m.Endpoint)
			v.store(my, m, data, err)
			// ошибка метрики не отменяет соседей
			return nil
		})
	}
	_ = g.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	if my == v.gen {
		v.cancel = nil
	} else {
		b.superseded = true
	}
	close(b.done)
}

func (v *View) await(ctx context.Context, b *batch) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
		}
		if !b.superseded {
			return
		}
		v.mu.Lock()
		next := v.cur
		v.mu.Unlock()
		if next == nil || next == b {
			return
		}
		b = next
	}
}

func (v *View) store(gen uint64, m registry.MetricDescriptor, data any, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return
	}
	r := v.results[m.Name]
	if err != nil {
		// старые данные не затираем, только статус и ошибка
		r.Status = StatusFailed
		r.Error = backend.Message(err)
		v.log.Warn("metric failed", zap.String("metric", m.Name), zap.Error(err))
		return
	}
	r.Status = StatusReady
	r.Data = data
	r.Error = ""
	r.UpdatedAt = v.now()
}

// Close отменяет текущую загрузку
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.cur = nil
	v.gen++
}

// Results: копия состояний в порядке метрик
func (v *View) Results() []Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Result, 0, len(v.metrics))
	for _, m := range v.metrics {
		out = append(out, *v.results[m.Name])
	}
	return out
}
