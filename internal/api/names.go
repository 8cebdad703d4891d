package api

import (
	"strings"

	"portal/internal/registry"
)

// resolveRole приводит имя роли к ключу реестра
func resolveRole(reg *registry.Registry, raw string) (string, bool) {
	role := registry.NormalizeRole(raw)
	if role == "" {
		return "", false
	}
	if _, ok := reg.Spec(role); !ok {
		return "", false
	}
	return role, true
}

// resolveTable: сначала точное совпадение endpoint, потом регистронезависимое.
func resolveTable(reg *registry.Registry, rawRole, rawEndpoint string) (string, registry.TableDescriptor, bool) {
	role, ok := resolveRole(reg, rawRole)
	if !ok {
		return "", registry.TableDescriptor{}, false
	}
	endpoint := strings.Trim(strings.TrimSpace(rawEndpoint), "/")
	if endpoint == "" {
		return "", registry.TableDescriptor{}, false
	}
	if td, ok := reg.Table(role, endpoint); ok {
		return role, td, true
	}
	for _, td := range reg.Tables(role) {
		if strings.EqualFold(td.Endpoint, endpoint) {
			return role, td, true
		}
	}
	return "", registry.TableDescriptor{}, false
}
