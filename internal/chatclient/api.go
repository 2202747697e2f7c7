// Package chatclient is the polling client of the group chat API: a thin
// HTTP binding, the displayed-list mirror and the sync engine driving both.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"groupchat/internal/app/message"
)

const DefaultCookieName = "session_key"

// StatusError is a non-2xx API response.
type StatusError struct {
	Code    int
	Message string
	Details string
}

func (e *StatusError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%d %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details string          `json:"details"`
}

// API talks to one server. The session cookie set by Login is reused by every
// later call through the cookie jar.
type API struct {
	base       *url.URL
	http       *http.Client
	cookieName string

	mu         sync.RWMutex
	sessionKey string
}

func NewAPI(baseURL string, timeout time.Duration) (*API, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https, got %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &API{
		base:       base,
		http:       &http.Client{Timeout: timeout, Jar: jar},
		cookieName: DefaultCookieName,
	}, nil
}

// SessionKey returns the key issued by the last successful Login.
func (a *API) SessionKey() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionKey
}

// WebsocketURL is the nudge endpoint, authenticated by query parameter.
func (a *API) WebsocketURL() string {
	u := *a.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"session_key": {a.SessionKey()}}.Encode()
	return u.String()
}

func (a *API) Register(ctx context.Context, email, firstName, lastName, password string) error {
	body := map[string]string{
		"email":     email,
		"firstName": firstName,
		"lastName":  lastName,
		"password":  password,
	}
	return a.do(ctx, http.MethodPost, "/api/register", nil, body, nil)
}

func (a *API) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/login", nil, body, nil); err != nil {
		return err
	}
	for _, c := range a.http.Jar.Cookies(a.base) {
		if c.Name == a.cookieName {
			a.mu.Lock()
			a.sessionKey = c.Value
			a.mu.Unlock()
		}
	}
	return nil
}

func (a *API) FetchAll(ctx context.Context) ([]*message.Message, error) {
	var data message.MessagesData
	if err := a.do(ctx, http.MethodGet, "/api/message", nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Messages, nil
}

func (a *API) FetchSince(ctx context.Context, since time.Time) ([]message.ClassifiedMessage, error) {
	q := url.Values{"lastFetchTimeStamp": {since.UTC().Format(time.RFC3339Nano)}}
	var data message.ClassifiedMessagesData
	if err := a.do(ctx, http.MethodGet, "/api/message/date", q, nil, &data); err != nil {
		return nil, err
	}
	return data.Messages, nil
}

func (a *API) Search(ctx context.Context, term string) ([]*message.Message, error) {
	var data message.MessagesData
	if err := a.do(ctx, http.MethodGet, "/api/message/search", url.Values{"string": {term}}, nil, &data); err != nil {
		return nil, err
	}
	return data.Messages, nil
}

func (a *API) Send(ctx context.Context, content string) (*message.Message, error) {
	var msg message.Message
	body := message.WriteMessageRequest{MessageContent: content}
	if err := a.do(ctx, http.MethodPost, "/api/message", nil, body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (a *API) Edit(ctx context.Context, id uint64, content string) (*message.Message, error) {
	var msg message.Message
	body := message.UpdateMessageRequest{MessageID: message.FlexibleID(id), MessageContent: content}
	if err := a.do(ctx, http.MethodPut, "/api/message", nil, body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (a *API) Delete(ctx context.Context, id uint64) error {
	return a.do(ctx, http.MethodDelete, "/api/message/"+strconv.FormatUint(id, 10), nil, nil, nil)
}

func (a *API) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := *a.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil && env.Message != "" {
			statusErr.Message = env.Message
			statusErr.Details = env.Details
		}
		return statusErr
	}
	if out == nil {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
