package main

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"groupchat/internal/app"
	"groupchat/internal/chatclient"
	"groupchat/internal/config"
	"groupchat/internal/db/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startServer(t *testing.T) string {
	t.Helper()
	cfg := &config.Config{
		DBDriver:         "sqlite",
		Env:              "test",
		SessionTTL:       time.Hour,
		SessionCookie:    chatclient.DefaultCookieName,
		RateLimitRPS:     100,
		RateLimitBurst:   100,
		MaxMessageLength: 255,
	}
	application := app.Wire(cfg, zap.NewNop(), dbtest.Open(t), nil)
	t.Cleanup(application.Hub.Stop)

	srv := httptest.NewServer(application.Router.Engine)
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	base := []string{"chatclient", "--server", url, "--email", "kay@example.com", "--password", "hunter2"}
	err := newApp(&out).Run(append(base, args...))
	return out.String(), err
}

func TestCommands(t *testing.T) {
	url := startServer(t)

	out, err := run(t, url, "register", "--first-name", "Kay", "--last-name", "Dee")
	require.NoError(t, err)
	assert.Contains(t, out, "registered kay@example.com")

	out, err = run(t, url, "send", "fish", "&", "chips")
	require.NoError(t, err)
	assert.Contains(t, out, "Kay Dee: fish & chips")

	out, err = run(t, url, "search", "chips")
	require.NoError(t, err)
	assert.Contains(t, out, "[1]")

	out, err = run(t, url, "edit", "1", "fish", "tacos")
	require.NoError(t, err)
	assert.Contains(t, out, "(edited)")

	_, err = run(t, url, "send", "   ")
	assert.EqualError(t, err, "Can not send message")

	_, err = run(t, url, "delete", "42")
	assert.EqualError(t, err, chatclient.NoticeNotFound)

	out, err = run(t, url, "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1")

	out, err = run(t, url, "search", "fish")
	require.NoError(t, err)
	assert.Contains(t, out, "No messages Found")
}

func TestCommandsNeedCredentials(t *testing.T) {
	var out bytes.Buffer
	err := newApp(&out).Run([]string{"chatclient", "--server", "http://127.0.0.1:1", "send", "hi"})
	assert.ErrorContains(t, err, "--email and --password")

	_, err = run(t, "http://127.0.0.1:1", "edit", "abc", "x")
	assert.ErrorContains(t, err, "invalid message id")
}

func TestUnreachableServerIsNotAFault(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:1", "--timeout", "1s", "search", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can not reach the server")
	assert.NotContains(t, err.Error(), "unexpected error")
}
