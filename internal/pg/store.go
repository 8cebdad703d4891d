package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"

	"portal/internal/devbackend"
)

// RecordStore: devbackend.Store поверх одной jsonb-таблицы
type RecordStore struct {
	db    *sql.DB
	table string
	ids   *devbackend.IDGen
}

var _ devbackend.Store = (*RecordStore)(nil)

func NewRecordStore(db *sql.DB, table string) *RecordStore {
	return &RecordStore{db: db, table: sqlIdent(safeTable(table)), ids: devbackend.NewIDGen()}
}

// Migrate создаёт таблицу, если её нет
func (s *RecordStore) Migrate(ctx context.Context) error {
	return ApplyDDL(ctx, s.db, RecordsDDL(unquote(s.table)), nil)
}

func (s *RecordStore) List(ctx context.Context, endpoint string) ([]*devbackend.Record, error) {
	q := fmt.Sprintf(`select id, version, created_at, updated_at, data from %s
where endpoint = $1 and not deleted order by id`, s.table)
	rows, err := s.db.QueryContext(ctx, q, endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "list records")
	}
	defer rows.Close()

	var out []*devbackend.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate records")
	}
	return out, nil
}

func (s *RecordStore) Get(ctx context.Context, endpoint, id string) (*devbackend.Record, error) {
	q := fmt.Sprintf(`select id, version, created_at, updated_at, data from %s
where endpoint = $1 and id = $2 and not deleted`, s.table)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, q, endpoint, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, devbackend.ErrNotFound
	}
	return rec, err
}

func (s *RecordStore) Create(ctx context.Context, endpoint string, data map[string]any) (*devbackend.Record, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "encode data")
	}
	now := time.Now().UTC()
	id := s.ids.New()
	q := fmt.Sprintf(`insert into %s (endpoint, id, version, created_at, updated_at, data)
values ($1, $2, 1, $3, $3, $4)`, s.table)
	if _, err := s.db.ExecContext(ctx, q, endpoint, id, now, string(raw)); err != nil {
		return nil, errors.Wrap(err, "insert record")
	}
	return &devbackend.Record{ID: id, Version: 1, CreatedAt: now, UpdatedAt: now, Data: data}, nil
}

func (s *RecordStore) Update(ctx context.Context, endpoint, id string, data map[string]any, expectVersion int64) (*devbackend.Record, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "encode data")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	var cur int64
	q := fmt.Sprintf(`select version from %s where endpoint = $1 and id = $2 and not deleted for update`, s.table)
	if err := tx.QueryRowContext(ctx, q, endpoint, id).Scan(&cur); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, devbackend.ErrNotFound
		}
		return nil, errors.Wrap(err, "lock record")
	}
	if expectVersion != 0 && expectVersion != cur {
		return nil, errors.Wrapf(devbackend.ErrVersionConflict, "expected version %d", cur)
	}

	q = fmt.Sprintf(`update %s set data = $3, version = version + 1, updated_at = $4
where endpoint = $1 and id = $2
returning id, version, created_at, updated_at, data`, s.table)
	rec, err := scanRecord(tx.QueryRowContext(ctx, q, endpoint, id, string(raw), time.Now().UTC()))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return rec, nil
}

func (s *RecordStore) Delete(ctx context.Context, endpoint, id string) error {
	q := fmt.Sprintf(`update %s set deleted = true, updated_at = $3
where endpoint = $1 and id = $2 and not deleted`, s.table)
	res, err := s.db.ExecContext(ctx, q, endpoint, id, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "delete record")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return devbackend.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*devbackend.Record, error) {
	var (
		rec devbackend.Record
		raw []byte
	)
	if err := sc.Scan(&rec.ID, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan record")
	}
	rec.Data = map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.Data); err != nil {
			return nil, errors.Wrap(err, "decode data")
		}
	}
	return &rec, nil
}

func unquote(ident string) string {
	if len(ident) >= 2 && ident[0] == '"' && ident[len(ident)-1] == '"' {
		return ident[1 : len(ident)-1]
	}
	return ident
}
