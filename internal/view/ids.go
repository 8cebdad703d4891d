package view

import (
	"strings"

	"github.com/go-faster/errors"

	"portal/internal/backend"
	"portal/internal/registry"
)

var (
	ErrNoRecordID   = errors.New("cannot determine record ID")
	ErrNotConfirmed = errors.New("delete not confirmed")
)

// ResolveID: объявленный id_field, иначе первый присутствующий ключ из IDCandidates.
func ResolveID(td registry.TableDescriptor, rec backend.Record) (string, error) {
	if td.IDField != "" {
		if id := idValue(rec, td.IDField); id != "" {
			return id, nil
		}
		return "", errors.Wrapf(ErrNoRecordID, "field %q missing", td.IDField)
	}
	for _, k := range registry.IDCandidates {
		if id := idValue(rec, k); id != "" {
			return id, nil
		}
	}
	return "", ErrNoRecordID
}

func idValue(rec backend.Record, key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(Stringify(v))
}
