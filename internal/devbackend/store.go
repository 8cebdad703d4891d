package devbackend

import (
	"context"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/oklog/ulid/v2"
)

var ErrNotFound = errors.New("record not found")

type Record struct {
	ID        string         `json:"id"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Deleted   bool           `json:"-"`
	Data      map[string]any `json:"data"`
}

// Store: хранилище записей по endpoint'ам
type Store interface {
	List(ctx context.Context, endpoint string) ([]*Record, error)
	Get(ctx context.Context, endpoint, id string) (*Record, error)
	Create(ctx context.Context, endpoint string, data map[string]any) (*Record, error)
	Update(ctx context.Context, endpoint, id string, data map[string]any, expectVersion int64) (*Record, error)
	Delete(ctx context.Context, endpoint, id string) error
}

// ErrVersionConflict возвращается, если expectVersion не совпал
var ErrVersionConflict = errors.New("version conflict")

// IDGen: монотонные ULID
type IDGen struct {
	mu      sync.Mutex
	entropy io.Reader
}

func NewIDGen() *IDGen {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &IDGen{entropy: ulid.Monotonic(src, 0)}
}

func (g *IDGen) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// ==== in-memory ====

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*Record // endpoint -> id -> запись
	ids  *IDGen
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]*Record),
		ids:  NewIDGen(),
	}
}

// List отдаёт живые записи в порядке создания
func (s *MemoryStore) List(_ context.Context, endpoint string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Record, 0, len(s.data[endpoint]))
	for _, r := range s.data[endpoint] {
		if !r.Deleted {
			out = append(out, copyRecord(r))
		}
	}
	// ULID монотонны: сортировка по id = по времени создания
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, endpoint, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.data[endpoint][id]
	if rec == nil || rec.Deleted {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

func (s *MemoryStore) Create(_ context.Context, endpoint string, data map[string]any) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[endpoint] == nil {
		s.data[endpoint] = make(map[string]*Record)
	}
	now := time.Now().UTC()
	rec := &Record{
		ID:        s.ids.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Data:      copyData(data),
	}
	s.data[endpoint][rec.ID] = rec
	return copyRecord(rec), nil
}

// Update заменяет данные целиком (PUT). expectVersion=0: без проверки версии.
func (s *MemoryStore) Update(_ context.Context, endpoint, id string, data map[string]any, expectVersion int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.data[endpoint][id]
	if rec == nil || rec.Deleted {
		return nil, ErrNotFound
	}
	if expectVersion != 0 && expectVersion != rec.Version {
		return nil, errors.Wrapf(ErrVersionConflict, "expected version %d", rec.Version)
	}
	rec.Data = copyData(data)
	rec.Version++
	rec.UpdatedAt = time.Now().UTC()
	return copyRecord(rec), nil
}

// Delete: мягкое удаление
func (s *MemoryStore) Delete(_ context.Context, endpoint, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.data[endpoint][id]
	if rec == nil || rec.Deleted {
		return ErrNotFound
	}
	rec.Deleted = true
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func copyRecord(r *Record) *Record {
	c := *r
	c.Data = copyData(r.Data)
	return &c
}

func copyData(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
