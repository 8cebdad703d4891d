package session

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"portal/internal/backend"
	"portal/internal/registry"
)

// Authenticator: логин на бэкенде и проброс токена в клиента
type Authenticator interface {
	Login(ctx context.Context, req backend.LoginRequest) (*backend.LoginResponse, error)
	SetToken(token string)
}

// Router: откуда брать маршрут роли
type Router interface {
	RouteFor(role string) string
}

type State struct {
	Authenticated bool   `json:"isAuthenticated"`
	Token         string `json:"-"`
	Role          string `json:"userRole,omitempty"`
	Email         string `json:"email,omitempty"`
	Route         string `json:"route,omitempty"`
}

var ErrNotAuthenticated = errors.New("not authenticated")

type Manager struct {
	store  *Store
	auth   Authenticator
	router Router
	log    *zap.Logger
}

func NewManager(store *Store, auth Authenticator, router Router, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{store: store, auth: auth, router: router, log: log.Named("session")}
	// токен из прошлой сессии сразу в клиента
	if tok := store.Get(KeyToken); tok != "" && auth != nil {
		auth.SetToken(tok)
	}
	return m
}

// Login: бэкенд -> хранилище -> маршрут. redirect_path сервера важнее таблицы.
func (m *Manager) Login(ctx context.Context, username, password, userType string) (State, error) {
	resp, err := m.auth.Login(ctx, backend.LoginRequest{
		Username: username,
		Password: password,
		UserType: userType,
	})
	if err != nil {
		m.log.Info("login rejected", zap.String("username", username), zap.Error(err))
		return State{}, err
	}

	role := firstString(resp.User, "user_type", "role", "userRole")
	if role == "" {
		role = userType
	}
	role = registry.NormalizeRole(role)
	email := firstString(resp.User, "email")
	if email == "" {
		email = username
	}
	token := resp.AuthToken()

	if err := m.store.Set(map[string]string{
		KeyAuthenticated: "true",
		KeyToken:         token,
		KeyRole:          role,
		KeyEmail:         email,
	}); err != nil {
		return State{}, errors.Wrap(err, "persist session")
	}
	m.auth.SetToken(token)

	st := m.Current()
	if p := strings.TrimSpace(resp.RedirectPath); p != "" {
		st.Route = p
	}
	m.log.Info("logged in", zap.String("role", role), zap.String("route", st.Route))
	return st, nil
}

func (m *Manager) Logout() error {
	if err := m.store.Clear(AllKeys...); err != nil {
		return err
	}
	if m.auth != nil {
		m.auth.SetToken("")
	}
	return nil
}

// Current читает состояние из хранилища
func (m *Manager) Current() State {
	ok, _ := strconv.ParseBool(m.store.Get(KeyAuthenticated))
	st := State{
		Authenticated: ok,
		Token:         m.store.Get(KeyToken),
		Role:          m.store.Get(KeyRole),
		Email:         m.store.Get(KeyEmail),
	}
	if st.Authenticated && m.router != nil {
		st.Route = m.router.RouteFor(st.Role)
	}
	return st
}

// Guard: можно ли показывать страницы роли. Только проверка присутствия
// ключей, без валидации токена.
func (m *Manager) Guard(role string) error {
	st := m.Current()
	if !st.Authenticated {
		return ErrNotAuthenticated
	}
	if role != "" && registry.NormalizeRole(role) != st.Role {
		return errors.Errorf("role %q cannot open %q pages", st.Role, registry.NormalizeRole(role))
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
