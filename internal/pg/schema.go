package pg

import (
	"fmt"
	"strings"
)

const DefaultTable = "portal_records"

var reserved = map[string]struct{}{
	"user": {}, "select": {}, "table": {}, "insert": {}, "update": {}, "delete": {},
	"where": {}, "join": {}, "group": {}, "order": {}, "limit": {}, "offset": {},
	"primary": {}, "foreign": {}, "key": {}, "constraint": {}, "default": {},
	"from": {}, "into": {}, "values": {}, "unique": {}, "index": {}, "create": {},
	"drop": {}, "alter": {}, "schema": {}, "grant": {}, "revoke": {},
}

func isReserved(s string) bool { _, ok := reserved[strings.ToLower(s)]; return ok }

// safeTable: нижний регистр, только [a-z0-9_], keyword'ы с префиксом
func safeTable(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	t := b.String()
	if t == "" {
		t = DefaultTable
	}
	if isReserved(t) {
		t = "e_" + t
	}
	return t
}

func sqlIdent(s string) string { return `"` + strings.ToLower(s) + `"` }

// RecordsDDL; ключи сортируются в ApplyDDL (сначала таблица, потом индексы)
func RecordsDDL(table string) map[string]string {
	t := safeTable(table)
	return map[string]string{
		"000_" + t: fmt.Sprintf(`create table if not exists %s (
  endpoint text not null,
  id text not null,
  version bigint not null default 1,
  created_at timestamptz not null,
  updated_at timestamptz not null,
  deleted boolean not null default false,
  data jsonb not null default '{}'::jsonb,
  primary key (endpoint, id)
);`, sqlIdent(t)),
		"100_" + t + "_live_idx": fmt.Sprintf(
			"create index if not exists %s on %s(endpoint, id) where not deleted;",
			sqlIdent(t+"_live_idx"), sqlIdent(t)),
	}
}
