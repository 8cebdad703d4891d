package view

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal/internal/backend"
	"portal/internal/devbackend"
	"portal/internal/registry"
)

type fakeBackend struct {
	mu      sync.Mutex
	rows    []backend.Record
	listErr error
	calls   []string
	// list блокируется, пока не закрыт канал (если задан)
	gate map[int]chan struct{}
	n    int
}

func (f *fakeBackend) List(ctx context.Context, endpoint string) ([]backend.Record, error) {
	f.mu.Lock()
	f.n++
	call := f.n
	f.calls = append(f.calls, "GET "+endpoint)
	gate := f.gate[call]
	rows := append([]backend.Record(nil), f.rows...)
	err := f.listErr
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return rows, err
}

func (f *fakeBackend) Create(ctx context.Context, endpoint string, values backend.Record) (backend.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "POST "+endpoint)
	f.rows = append(f.rows, values)
	return values, nil
}

func (f *fakeBackend) Update(ctx context.Context, endpoint, id string, values backend.Record) (backend.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "PUT "+endpoint+"/"+id)
	return values, nil
}

func (f *fakeBackend) Delete(ctx context.Context, endpoint, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "DELETE "+endpoint+"/"+id)
	return nil
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func qiTable(t *testing.T) registry.TableDescriptor {
	td, ok := registry.Builtin().Table("qi", "qi-inspections")
	require.True(t, ok)
	return td
}

func TestHeadersCountIsColumnsPlusOne(t *testing.T) {
	for _, role := range registry.Builtin().Roles() {
		for _, td := range registry.Builtin().Tables(role) {
			v := NewTableView(td, &fakeBackend{})
			h := v.Headers()
			assert.Len(t, h, len(td.Columns)+1)
			assert.Equal(t, ActionsColumn, h[len(h)-1])
		}
	}
}

func TestPaginateLastPage(t *testing.T) {
	for _, n := range []int{1, 4, 5, 6, 10, 11, 24, 25, 26, 53} {
		for _, p := range PageSizes {
			rows := make([]backend.Record, n)
			pages := (n + p - 1) / p
			page := Paginate(rows, pages-1, p)
			want := n % p
			if want == 0 {
				want = p
			}
			assert.Len(t, page.Rows, want, "n=%d p=%d", n, p)
			assert.Equal(t, pages, page.Pages)
		}
	}
}

func TestPaginateEdges(t *testing.T) {
	rows := make([]backend.Record, 7)

	page := Paginate(rows, 99, 5)
	assert.Equal(t, 1, page.Number)
	assert.Len(t, page.Rows, 2)

	page = Paginate(rows, -3, 7) // 7 не из набора -> 10
	assert.Equal(t, DefaultPageSize, page.Size)
	assert.Len(t, page.Rows, 7)

	empty := Paginate(nil, 2, 5)
	assert.Equal(t, 0, empty.Pages)
	assert.Empty(t, empty.Rows)
}

func TestResolveID(t *testing.T) {
	td := registry.TableDescriptor{Endpoint: "vendors", Columns: []string{"name"}}

	for _, key := range registry.IDCandidates {
		id, err := ResolveID(td, backend.Record{key: json.Number("42"), "name": "x"})
		require.NoError(t, err, key)
		assert.Equal(t, "42", id)
	}

	// первый по списку выигрывает
	id, err := ResolveID(td, backend.Record{"vendor_id": "v", "user_id": "u"})
	require.NoError(t, err)
	assert.Equal(t, "u", id)

	_, err = ResolveID(td, backend.Record{"name": "x"})
	assert.ErrorIs(t, err, ErrNoRecordID)

	// объявленное поле не угадывается
	td.IDField = "vendor_id"
	_, err = ResolveID(td, backend.Record{"id": 1})
	assert.ErrorIs(t, err, ErrNoRecordID)
}

func TestDeleteWithoutIDMakesNoRequest(t *testing.T) {
	fb := &fakeBackend{}
	v := NewTableView(registry.TableDescriptor{Endpoint: "vendors", Columns: []string{"name"}}, fb)

	err := v.Delete(context.Background(), backend.Record{"name": "acme"}, true)
	assert.ErrorIs(t, err, ErrNoRecordID)
	assert.Empty(t, fb.Calls())
	assert.Equal(t, "Cannot determine record ID", v.Snapshot().Error)

	err = v.Update(context.Background(), backend.Record{"name": "acme"}, backend.Record{"name": "b"})
	assert.ErrorIs(t, err, ErrNoRecordID)
	assert.Empty(t, fb.Calls())
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	fb := &fakeBackend{}
	v := NewTableView(registry.TableDescriptor{Endpoint: "vendors", Columns: []string{"name"}}, fb)

	assert.ErrorIs(t, v.Delete(context.Background(), backend.Record{"id": 1}, false), ErrNotConfirmed)
	assert.Empty(t, fb.Calls())

	require.NoError(t, v.Delete(context.Background(), backend.Record{"vendor_id": 9}, true))
	assert.Equal(t, []string{"DELETE vendors/9", "GET vendors"}, fb.Calls())
}

func TestBuildFormBooleanDetection(t *testing.T) {
	cols := []string{"project", "scheduled_date", "progress", "is_completed", "is_paid"}
	current := backend.Record{
		"project":        "P-1",
		"scheduled_date": "2024-01-02",
		"progress":       json.Number("42.5"),
		"is_completed":   true,
	}
	original := backend.Record{"is_paid": false, "progress": 10.0}

	form := BuildForm(cols, current, original)
	require.Len(t, form, len(cols))
	for i, f := range form {
		assert.Equal(t, cols[i], f.Name)
	}
	assert.Equal(t, FieldText, form[0].Kind)
	assert.Equal(t, FieldText, form[1].Kind)
	assert.Equal(t, FieldText, form[2].Kind)
	assert.Equal(t, "42.5", form[2].Value)
	assert.Equal(t, FieldBool, form[3].Kind)
	assert.Equal(t, BoolTrue, form[3].Value)
	assert.Equal(t, []string{BoolUnset, BoolTrue, BoolFalse}, form[3].Options)
	assert.Equal(t, FieldBool, form[4].Kind)
	assert.Equal(t, BoolFalse, form[4].Value)

	// строка "true": не bool
	form = BuildForm([]string{"flag"}, backend.Record{"flag": "true"}, nil)
	assert.Equal(t, FieldText, form[0].Kind)
}

func TestParseFormTriState(t *testing.T) {
	fields := []FormField{
		{Name: "title", Kind: FieldText},
		{Name: "a", Kind: FieldBool},
		{Name: "b", Kind: FieldBool},
		{Name: "c", Kind: FieldBool, Value: BoolTrue},
	}
	rec := ParseForm(fields, map[string]string{"title": "x", "a": "", "b": "false"})
	assert.Equal(t, backend.Record{"title": "x", "b": false, "c": true}, rec)
}

func TestLoadFailureClearsRows(t *testing.T) {
	fb := &fakeBackend{rows: []backend.Record{{"id": 1}}}
	v := NewTableView(qiTable(t), fb)

	require.NoError(t, v.Load(context.Background()))
	assert.Len(t, v.Snapshot().Rows, 1)

	fb.mu.Lock()
	fb.listErr = &backend.Error{Kind: backend.KindStatus, Status: 502}
	fb.mu.Unlock()

	require.Error(t, v.Load(context.Background()))
	snap := v.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Empty(t, snap.Rows)
	assert.Equal(t, "Request failed with status 502", snap.Error)

	v.DismissError()
	assert.Empty(t, v.Snapshot().Error)
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	first := make(chan struct{})
	fb := &fakeBackend{
		rows: []backend.Record{{"id": 1}},
		gate: map[int]chan struct{}{1: first},
	}
	v := NewTableView(qiTable(t), fb)

	done := make(chan error, 1)
	go func() { done <- v.Load(context.Background()) }()

	// ждём, пока первый запрос уйдёт
	require.Eventually(t, func() bool { return len(fb.Calls()) == 1 }, time.Second, 5*time.Millisecond)

	fb.mu.Lock()
	fb.rows = []backend.Record{{"id": 1}, {"id": 2}}
	fb.mu.Unlock()
	require.NoError(t, v.Load(context.Background()))

	// обогнанный вызов не падает: он получает итог новой загрузки
	require.NoError(t, <-done)
	snap := v.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Len(t, snap.Rows, 2)
}

func TestConcurrentLoadsShareNewestResult(t *testing.T) {
	gate := make(chan struct{})
	fb := &fakeBackend{
		rows: []backend.Record{{"id": 1}},
		gate: map[int]chan struct{}{1: gate, 2: gate, 3: gate},
	}
	v := NewTableView(qiTable(t), fb)

	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() { errs <- v.Load(context.Background()) }()
		require.Eventually(t, func() bool { return len(fb.Calls()) == i+1 }, time.Second, 5*time.Millisecond)
	}
	close(gate)
	for i := 0; i < 3; i++ {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, StateReady, v.Snapshot().State)

	// ошибка новой загрузки достаётся и обогнанным
	gate = make(chan struct{})
	fb.mu.Lock()
	fb.gate = map[int]chan struct{}{4: gate, 5: gate}
	fb.listErr = &backend.Error{Kind: backend.KindStatus, Status: 500}
	fb.mu.Unlock()
	go func() { errs <- v.Load(context.Background()) }()
	require.Eventually(t, func() bool { return len(fb.Calls()) == 4 }, time.Second, 5*time.Millisecond)
	go func() { errs <- v.Load(context.Background()) }()
	require.Eventually(t, func() bool { return len(fb.Calls()) == 5 }, time.Second, 5*time.Millisecond)
	close(gate)
	for i := 0; i < 2; i++ {
		var be *backend.Error
		require.ErrorAs(t, <-errs, &be)
		assert.Equal(t, 500, be.Status)
	}
}

func TestLoadCallerCancelDoesNotAbortFetch(t *testing.T) {
	gate := make(chan struct{})
	fb := &fakeBackend{
		rows: []backend.Record{{"id": 1}},
		gate: map[int]chan struct{}{1: gate},
	}
	v := NewTableView(qiTable(t), fb)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Load(ctx) }()
	require.Eventually(t, func() bool { return len(fb.Calls()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(gate)
	require.Eventually(t, func() bool { return v.Snapshot().State == StateReady }, time.Second, 5*time.Millisecond)
	assert.Len(t, v.Snapshot().Rows, 1)
}

func TestCloseReleasesWaiters(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	fb := &fakeBackend{gate: map[int]chan struct{}{1: gate}}
	v := NewTableView(qiTable(t), fb)

	done := make(chan error, 1)
	go func() { done <- v.Load(context.Background()) }()
	require.Eventually(t, func() bool { return len(fb.Calls()) == 1 }, time.Second, 5*time.Millisecond)

	v.Close()
	assert.ErrorIs(t, <-done, ErrClosed)
}

func TestNoticeAutoDismiss(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	fb := &fakeBackend{}
	v := NewTableView(qiTable(t), fb, WithClock(clock))

	v.OpenAdd()
	require.NoError(t, v.Create(context.Background(), backend.Record{"project": "P"}))
	snap := v.Snapshot()
	assert.Equal(t, "Record created successfully", snap.Notice)
	assert.Equal(t, DialogClosed, snap.Dialog)

	now = now.Add(2999 * time.Millisecond)
	assert.NotEmpty(t, v.Snapshot().Notice)
	now = now.Add(time.Millisecond)
	assert.Empty(t, v.Snapshot().Notice)
}

func TestDialogStateIndependentOfLoad(t *testing.T) {
	fb := &fakeBackend{rows: []backend.Record{{"id": 3, "is_completed": false}}}
	v := NewTableView(qiTable(t), fb)
	require.NoError(t, v.Load(context.Background()))

	rec, ok := v.Find("3")
	require.True(t, ok)
	v.OpenEdit(rec)

	fb.mu.Lock()
	fb.listErr = errors.New("down")
	fb.mu.Unlock()
	_ = v.Load(context.Background())

	snap := v.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, DialogEdit, snap.Dialog)

	form := v.Form(nil)
	assert.Equal(t, FieldBool, form[4].Kind)
	assert.Equal(t, BoolFalse, form[4].Value)

	v.CloseDialog()
	assert.Equal(t, DialogClosed, v.Snapshot().Dialog)
}

// полный цикл против локального бэкенда
func newDevBackend(t *testing.T) (*backend.Client, *devbackend.Server, *[]string) {
	t.Helper()
	dev := devbackend.New(devbackend.NewMemoryStore())
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		dev.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return backend.NewClient(srv.URL + "/api/v1"), dev, &paths
}

func TestQIScenario(t *testing.T) {
	client, dev, paths := newDevBackend(t)
	require.NoError(t, dev.Seed(context.Background(), "qi-inspections", map[string]any{
		"project":           "P-7",
		"inspection_type":   "Structural",
		"scheduled_date":    "2024-06-01",
		"inspection_result": "pass",
		"is_completed":      true,
		"inspector_notes":   "hidden column",
	}))

	td, ok := registry.Builtin().Table("qi", "qi-inspections")
	require.True(t, ok)
	v := NewTableView(td, client)
	require.NoError(t, v.Load(context.Background()))

	assert.Equal(t, []string{"GET /api/v1/qi-inspections/"}, *paths)
	assert.Equal(t, []string{"project", "inspection_type", "scheduled_date", "inspection_result", "is_completed", ActionsColumn}, v.Headers())

	page := v.Page(0, DefaultPageSize)
	require.Len(t, page.Rows, 1)
	form := v.FormFor(page.Rows[0])
	names := make([]string, 0, len(form))
	for _, f := range form {
		names = append(names, f.Name)
	}
	assert.Equal(t, td.Columns, names)
}

func TestAddRoundTrip(t *testing.T) {
	client, dev, _ := newDevBackend(t)
	td := registry.TableDescriptor{Endpoint: "tasks", Label: "Tasks", Columns: []string{"project", "title", "is_done"}}
	v := NewTableView(td, client)
	ctx := context.Background()

	require.NoError(t, v.Load(ctx))
	before := len(v.Snapshot().Rows)

	// форма по умолчанию: все поля пустые
	v.OpenAdd()
	values := ParseForm(v.Form(nil), nil)
	require.NoError(t, v.Create(ctx, values))
	assert.Len(t, v.Snapshot().Rows, before+1)

	// сервер отказывает: количество не меняется, показана ошибка
	dev.Require("tasks", "title")
	v.OpenAdd()
	err := v.Create(ctx, ParseForm(v.Form(nil), nil))
	require.Error(t, err)
	snap := v.Snapshot()
	assert.Len(t, snap.Rows, before+1)
	assert.Contains(t, snap.Error, "title")
	assert.Equal(t, DialogAdd, snap.Dialog)
}
