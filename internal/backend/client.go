package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

// Record: нетипизированная запись сервера
type Record map[string]any

const DefaultTimeout = 15 * time.Second

// Client ходит в REST-бэкенд вида {base}/{endpoint}/ и {base}/{endpoint}/{id}/
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	log     *zap.Logger

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func NewClient(base string, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(strings.TrimSpace(base), "/"),
		http:    cleanhttp.DefaultPooledClient(),
		timeout: DefaultTimeout,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	// таймаут ставим на копию: переданный снаружи клиент не трогаем
	hc := *c.http
	hc.Timeout = c.timeout
	c.http = &hc
	c.log = c.log.Named("backend")
	return c
}

func (c *Client) Base() string { return c.base }

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// URL: {base}/{endpoint}/ или {base}/{endpoint}/{id}/.
// Сегменты эндпоинта и id экранируются: "?", "#", "%" и "/" в id не ломают путь.
func (c *Client) URL(endpoint, id string) string {
	var b strings.Builder
	b.WriteString(c.base)
	for _, seg := range strings.Split(strings.Trim(strings.TrimSpace(endpoint), "/"), "/") {
		if seg == "" {
			continue
		}
		b.WriteString("/" + url.PathEscape(seg))
	}
	b.WriteString("/")
	if id = strings.TrimSpace(id); id != "" {
		b.WriteString(url.PathEscape(id) + "/")
	}
	return b.String()
}

// ==== CRUD ====

// List принимает и голый массив, и конверт {"results": [...]}
func (c *Client) List(ctx context.Context, endpoint string) ([]Record, error) {
	u := c.URL(endpoint, "")
	raw, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeCollection(raw)
	if err != nil {
		return nil, &Error{Kind: KindMalformed, Method: http.MethodGet, URL: u, Err: err}
	}
	return rows, nil
}

func (c *Client) Create(ctx context.Context, endpoint string, values Record) (Record, error) {
	return c.write(ctx, http.MethodPost, c.URL(endpoint, ""), values)
}

func (c *Client) Update(ctx context.Context, endpoint, id string, values Record) (Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("update: empty record id")
	}
	return c.write(ctx, http.MethodPut, c.URL(endpoint, id), values)
}

func (c *Client) Delete(ctx context.Context, endpoint, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("delete: empty record id")
	}
	_, err := c.do(ctx, http.MethodDelete, c.URL(endpoint, id), nil)
	return err
}

// Aggregate: произвольный JSON агрегата дашборда
func (c *Client) Aggregate(ctx context.Context, endpoint string) (any, error) {
	u := c.URL(endpoint, "")
	raw, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var out any
	if err := decodeJSON(raw, &out); err != nil {
		return nil, &Error{Kind: KindMalformed, Method: http.MethodGet, URL: u, Err: err}
	}
	return out, nil
}

func (c *Client) write(ctx context.Context, method, u string, values Record) (Record, error) {
	raw, err := c.do(ctx, method, u, values)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Record{}, nil
	}
	var rec Record
	if err := decodeJSON(raw, &rec); err != nil {
		return nil, &Error{Kind: KindMalformed, Method: method, URL: u, Err: err}
	}
	return rec, nil
}

// ==== транспорт ====

func (c *Client) do(ctx context.Context, method, u string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", method), zap.String("url", u), zap.Error(err))
		return nil, &Error{Kind: KindTransport, Method: method, URL: u, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Method: method, URL: u, Status: resp.StatusCode, Err: err}
	}
	c.log.Debug("request done",
		zap.String("method", method),
		zap.String("url", u),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(method, u, resp.StatusCode, raw)
	}
	return raw, nil
}

// non-2xx: JSON-тело значит бизнес-отказ, иначе голый статус
func statusError(method, u string, status int, raw []byte) error {
	e := &Error{Kind: KindStatus, Method: method, URL: u, Status: status}
	var payload any
	if len(bytes.TrimSpace(raw)) > 0 && decodeJSON(raw, &payload) == nil {
		e.Payload = payload
		e.Message = extractMessage(payload)
		if _, isObj := payload.(map[string]any); isObj && status < 500 {
			e.Kind = KindRejected
		}
	}
	return e
}

func decodeJSON(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

func decodeCollection(raw []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}
	switch trimmed[0] {
	case '[':
		var rows []Record
		if err := decodeJSON(trimmed, &rows); err != nil {
			return nil, errors.Wrap(err, "decode array")
		}
		return rows, nil
	case '{':
		var env struct {
			Results *[]Record `json:"results"`
		}
		if err := decodeJSON(trimmed, &env); err != nil {
			return nil, errors.Wrap(err, "decode envelope")
		}
		if env.Results == nil {
			return nil, errors.New("envelope without results array")
		}
		return *env.Results, nil
	default:
		return nil, errors.Errorf("unexpected JSON value starting with %q", trimmed[0])
	}
}
