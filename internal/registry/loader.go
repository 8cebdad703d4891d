package registry

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

// LoadDir читает все *.yaml/*.yml из папки: один файл на роль.
// Имя роли: из поля role или из имени файла.
func LoadDir(dir string) (map[string]RoleSpec, error) {
	result := make(map[string]RoleSpec)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read registry dir %s", dir)
	}
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		var spec RoleSpec
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
		if strings.TrimSpace(spec.Role) == "" {
			spec.Role = strings.TrimSuffix(name, filepath.Ext(name))
		}
		key := NormalizeRole(spec.Role)
		if _, dup := result[key]; dup {
			return nil, errors.Errorf("role %q defined twice (%s)", key, path)
		}
		spec.Role = key
		for i := range spec.Tables {
			spec.Tables[i].Endpoint = strings.Trim(strings.TrimSpace(spec.Tables[i].Endpoint), "/")
		}
		result[key] = spec
	}
	return result, nil
}

// Load: builtin + overrides из dir (пустой dir = только builtin)
func Load(dir string) (*Registry, error) {
	base := Builtin()
	if strings.TrimSpace(dir) == "" {
		return base, nil
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return base, nil
	}
	overrides, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return base.Merge(overrides), nil
}
