package view

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"portal/internal/backend"
	"portal/internal/registry"
)

// Backend: то, что нужно таблице от REST-клиента
type Backend interface {
	List(ctx context.Context, endpoint string) ([]backend.Record, error)
	Create(ctx context.Context, endpoint string, values backend.Record) (backend.Record, error)
	Update(ctx context.Context, endpoint, id string, values backend.Record) (backend.Record, error)
	Delete(ctx context.Context, endpoint, id string) error
}

type LoadState string

const (
	StateIdle    LoadState = "idle"
	StateLoading LoadState = "loading"
	StateReady   LoadState = "ready"
	StateFailed  LoadState = "failed"
)

type DialogMode string

const (
	DialogClosed DialogMode = "closed"
	DialogAdd    DialogMode = "add"
	DialogEdit   DialogMode = "edit"
)

const (
	ActionsColumn    = "actions"
	DefaultNoticeTTL = 3 * time.Second
)

// ErrClosed: таблицу закрыли (Close), пока Load ждал результата
var ErrClosed = errors.New("table view closed")

// errSuperseded остаётся внутри пакета: ожидающие переходят на более новую загрузку
var errSuperseded = errors.New("load superseded")

// loadResult: итог одной загрузки, done закрывается после применения
type loadResult struct {
	done chan struct{}
	err  error
}

// ReloadError: запись на сервере прошла, перечитать коллекцию не удалось
type ReloadError struct {
	Err error
}

func (e *ReloadError) Error() string { return "reload after write: " + e.Err.Error() }
func (e *ReloadError) Unwrap() error { return e.Err }

// TableView: view-model одной таблицы (загрузка, диалог, баннеры).
type TableView struct {
	desc registry.TableDescriptor
	api  Backend
	log  *zap.Logger

	now       func() time.Time
	noticeTTL time.Duration

	mu       sync.Mutex
	state    LoadState
	rows     []backend.Record
	errMsg   string
	notice   string
	noticeAt time.Time
	gen      uint64
	cancel   context.CancelFunc
	cur      *loadResult

	dialog  DialogMode
	editing backend.Record
}

type Option func(*TableView)

func WithClock(now func() time.Time) Option {
	return func(v *TableView) {
		if now != nil {
			v.now = now
		}
	}
}

func WithNoticeTTL(d time.Duration) Option {
	return func(v *TableView) {
		if d > 0 {
			v.noticeTTL = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(v *TableView) {
		if l != nil {
			v.log = l
		}
	}
}

func NewTableView(desc registry.TableDescriptor, api Backend, opts ...Option) *TableView {
	v := &TableView{
		desc:      desc,
		api:       api,
		log:       zap.NewNop(),
		now:       time.Now,
		noticeTTL: DefaultNoticeTTL,
		state:     StateIdle,
		dialog:    DialogClosed,
	}
	for _, o := range opts {
		o(v)
	}
	v.log = v.log.With(zap.String("endpoint", desc.Endpoint))
	return v
}

func (v *TableView) Descriptor() registry.TableDescriptor { return v.desc }

// Headers: колонки + колонка действий
func (v *TableView) Headers() []string {
	out := make([]string, 0, len(v.desc.Columns)+1)
	out = append(out, v.desc.Columns...)
	return append(out, ActionsColumn)
}

// ==== загрузка ====

// Load перечитывает всю коллекцию. Предыдущая загрузка отменяется,
// её ответ (если всё же придёт) выбрасывается, а её вызывающий получает
// результат самой новой загрузки. Сама загрузка не отменяется вместе с ctx
// вызывающего: её результата могут ждать другие запросы.
func (v *TableView) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	my := v.gen
	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	res := &loadResult{done: make(chan struct{})}
	v.cancel = cancel
	v.cur = res
	v.state = StateLoading
	v.mu.Unlock()

	go v.fetch(lctx, cancel, my, res)
	return v.await(ctx, res)
}

func (v *TableView) fetch(ctx context.Context, cancel context.CancelFunc, my uint64, res *loadResult) {
	defer cancel()
	rows, err := v.api.List(ctx, v.desc.Endpoint)

	v.mu.Lock()
	defer v.mu.Unlock()
	defer close(res.done)
	if my != v.gen {
		v.log.Debug("stale load discarded", zap.Uint64("gen", my), zap.Uint64("current", v.gen))
		res.err = errSuperseded
		return
	}
	v.cancel = nil
	if err != nil {
		v.rows = nil
		v.errMsg = backend.Message(err)
		v.state = StateFailed
		v.log.Warn("load failed", zap.Error(err))
		res.err = err
		return
	}
	if rows == nil {
		rows = []backend.Record{}
	}
	v.rows = rows
	v.errMsg = ""
	v.state = StateReady
}

// await ждёт res; если её обогнали, переходит на текущую загрузку
func (v *TableView) await(ctx context.Context, res *loadResult) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-res.done:
		}
		if !errors.Is(res.err, errSuperseded) {
			return res.err
		}
		v.mu.Lock()
		next := v.cur
		v.mu.Unlock()
		if next == nil || next == res {
			return ErrClosed
		}
		res = next
	}
}

// Close отменяет незавершённую загрузку (аналог unmount)
func (v *TableView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.cur = nil
	v.gen++
}

// ==== CRUD ====

func (v *TableView) Create(ctx context.Context, values backend.Record) error {
	if _, err := v.api.Create(ctx, v.desc.Endpoint, values); err != nil {
		v.fail("create failed", err)
		return err
	}
	v.succeed("Record created successfully")
	return v.reload(ctx)
}

func (v *TableView) Update(ctx context.Context, record, values backend.Record) error {
	id, err := ResolveID(v.desc, record)
	if err != nil {
		v.fail("update skipped", err)
		return err
	}
	if _, err := v.api.Update(ctx, v.desc.Endpoint, id, values); err != nil {
		v.fail("update failed", err)
		return err
	}
	v.succeed("Record updated successfully")
	return v.reload(ctx)
}

// Delete требует явного подтверждения; id резолвится до любого запроса.
func (v *TableView) Delete(ctx context.Context, record backend.Record, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	id, err := ResolveID(v.desc, record)
	if err != nil {
		v.fail("delete skipped", err)
		return err
	}
	if err := v.api.Delete(ctx, v.desc.Endpoint, id); err != nil {
		v.fail("delete failed", err)
		return err
	}
	v.succeed("Record deleted successfully")
	return v.reload(ctx)
}

// reload после успешной записи: без оптимистичных правок, всегда полный GET
func (v *TableView) reload(ctx context.Context) error {
	if err := v.Load(ctx); err != nil {
		return &ReloadError{Err: err}
	}
	return nil
}

func (v *TableView) fail(msg string, err error) {
	v.log.Warn(msg, zap.Error(err))
	v.mu.Lock()
	if errors.Is(err, ErrNoRecordID) {
		v.errMsg = "Cannot determine record ID"
	} else {
		v.errMsg = backend.Message(err)
	}
	v.mu.Unlock()
}

func (v *TableView) succeed(msg string) {
	v.mu.Lock()
	v.notice = msg
	v.noticeAt = v.now()
	v.errMsg = ""
	v.dialog = DialogClosed
	v.editing = nil
	v.mu.Unlock()
}

// Find ищет загруженную запись по id
func (v *TableView) Find(id string) (backend.Record, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range v.rows {
		if rid, err := ResolveID(v.desc, r); err == nil && rid == id {
			return cloneRecord(r), true
		}
	}
	return nil, false
}

// ==== диалог ====

func (v *TableView) OpenAdd() {
	v.mu.Lock()
	v.dialog = DialogAdd
	v.editing = nil
	v.mu.Unlock()
}

func (v *TableView) OpenEdit(record backend.Record) {
	v.mu.Lock()
	v.dialog = DialogEdit
	v.editing = cloneRecord(record)
	v.mu.Unlock()
}

func (v *TableView) CloseDialog() {
	v.mu.Lock()
	v.dialog = DialogClosed
	v.editing = nil
	v.mu.Unlock()
}

// Form: поля диалога. В режиме add тип полей берётся с первой загруженной
// записи, у которой есть колонка.
func (v *TableView) Form(current backend.Record) []FormField {
	v.mu.Lock()
	defer v.mu.Unlock()
	original := v.editing
	if v.dialog != DialogEdit {
		original = v.sampleLocked()
	}
	return BuildForm(v.desc.Columns, current, original)
}

// FormFor: поля для конкретной записи независимо от состояния диалога
func (v *TableView) FormFor(record backend.Record) []FormField {
	return BuildForm(v.desc.Columns, nil, record)
}

func (v *TableView) sampleLocked() backend.Record {
	sample := backend.Record{}
	for _, col := range v.desc.Columns {
		for _, r := range v.rows {
			if val, ok := r[col]; ok && val != nil {
				if _, isBool := val.(bool); isBool {
					sample[col] = val
				}
				break
			}
		}
	}
	return sample
}

func (v *TableView) DismissError() {
	v.mu.Lock()
	v.errMsg = ""
	v.mu.Unlock()
}

func (v *TableView) DismissNotice() {
	v.mu.Lock()
	v.notice = ""
	v.mu.Unlock()
}

// ==== снимок состояния ====

type Snapshot struct {
	State   LoadState        `json:"state"`
	Rows    []backend.Record `json:"-"`
	Error   string           `json:"error,omitempty"`
	Notice  string           `json:"notice,omitempty"`
	Dialog  DialogMode       `json:"dialog"`
	Editing backend.Record   `json:"editing,omitempty"`
}

func (v *TableView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	rows := make([]backend.Record, len(v.rows))
	copy(rows, v.rows)
	return Snapshot{
		State:   v.state,
		Rows:    rows,
		Error:   v.errMsg,
		Notice:  v.noticeLocked(),
		Dialog:  v.dialog,
		Editing: cloneRecord(v.editing),
	}
}

// Page: страница текущей коллекции
func (v *TableView) Page(number, size int) Page {
	return Paginate(v.Snapshot().Rows, number, size)
}

// noticeLocked гасит уведомление по истечении TTL
func (v *TableView) noticeLocked() string {
	if v.notice == "" {
		return ""
	}
	if v.now().Sub(v.noticeAt) >= v.noticeTTL {
		v.notice = ""
	}
	return v.notice
}

func cloneRecord(r backend.Record) backend.Record {
	if r == nil {
		return nil
	}
	out := make(backend.Record, len(r))
	for k, val := range r {
		out[k] = val
	}
	return out
}
