package chatclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"groupchat/internal/app"
	"groupchat/internal/app/message"
	"groupchat/internal/chatclient"
	"groupchat/internal/config"
	"groupchat/internal/db/dbtest"
	"groupchat/internal/providers/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startServer(t *testing.T) string {
	t.Helper()

	cfg := &config.Config{
		DBDriver:         "sqlite",
		Env:              "test",
		RedisTTL:         time.Minute,
		SessionTTL:       time.Hour,
		SessionCookie:    chatclient.DefaultCookieName,
		RequestTimeout:   5 * time.Second,
		RateLimitRPS:     1000,
		RateLimitBurst:   1000,
		MaxMessageLength: 255,
	}

	mr := miniredis.RunT(t)
	redisP := redis.NewRedisProvider(mr.Addr(), zap.NewNop(), cfg.RedisTTL)
	t.Cleanup(func() { _ = redisP.Close() })

	application := app.Wire(cfg, zap.NewNop(), dbtest.Open(t), redisP)
	t.Cleanup(application.Hub.Stop)

	srv := httptest.NewServer(application.Router.Engine)
	t.Cleanup(srv.Close)
	return srv.URL
}

func newUser(t *testing.T, serverURL, email, first string) *chatclient.API {
	t.Helper()
	api, err := chatclient.NewAPI(serverURL, 5*time.Second)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, api.Register(ctx, email, first, "Tester", "secret"))
	require.NoError(t, api.Login(ctx, email, "secret"))
	require.NotEmpty(t, api.SessionKey())
	return api
}

type capture struct {
	latest []*message.Message
}

func (c *capture) MessagesChanged(m []*message.Message) { c.latest = m }
func (c *capture) Notice(string)                        {}
func (c *capture) LoginRequired()                       {}
func (c *capture) Fault(error)                          {}

func TestTwoClientsConverge(t *testing.T) {
	url := startServer(t)
	ctx := context.Background()

	alice := newUser(t, url, "alice@example.com", "Alice")
	bob := newUser(t, url, "bob@example.com", "Bob")

	view := &capture{}
	engine := chatclient.NewEngine(bob, view, zap.NewNop())
	require.NoError(t, engine.SyncOnce(ctx))
	assert.Empty(t, view.latest)

	sent, err := alice.Send(ctx, "hi")
	require.NoError(t, err)

	require.NoError(t, engine.SyncOnce(ctx))
	require.Len(t, view.latest, 1)
	assert.Equal(t, "hi", view.latest[0].Content)
	assert.Equal(t, "Alice", view.latest[0].User.FirstName)

	time.Sleep(5 * time.Millisecond)
	_, err = alice.Edit(ctx, sent.ID, "hello")
	require.NoError(t, err)

	require.NoError(t, engine.SyncOnce(ctx))
	require.Len(t, view.latest, 1)
	assert.Equal(t, "hello", view.latest[0].Content)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, alice.Delete(ctx, sent.ID))

	require.NoError(t, engine.SyncOnce(ctx))
	assert.Empty(t, view.latest)
	assert.Empty(t, engine.Messages())
}

func TestAPIErrors(t *testing.T) {
	url := startServer(t)
	ctx := context.Background()

	alice := newUser(t, url, "alice@example.com", "Alice")
	bob := newUser(t, url, "bob@example.com", "Bob")

	_, err := alice.Send(ctx, "   ")
	var statusErr *chatclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Equal(t, "Can not send message", statusErr.Message)
	assert.Equal(t, chatclient.ActionNotice, chatclient.ClassifyError(err).Action)

	sent, err := alice.Send(ctx, "mine")
	require.NoError(t, err)

	err = bob.Delete(ctx, sent.ID)
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)

	err = alice.Delete(ctx, 9999)
	assert.Equal(t, chatclient.ActionNotice, chatclient.ClassifyError(err).Action)

	anon, err := chatclient.NewAPI(url, time.Second)
	require.NoError(t, err)
	_, err = anon.FetchAll(ctx)
	assert.Equal(t, chatclient.ActionLogin, chatclient.ClassifyError(err).Action)

	err = anon.Login(ctx, "alice@example.com", "wrong")
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)

	found, err := bob.Search(ctx, "MINE")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestWebsocketNudge(t *testing.T) {
	url := startServer(t)
	ctx := context.Background()

	alice := newUser(t, url, "alice@example.com", "Alice")

	conn, _, err := websocket.DefaultDialer.Dial(alice.WebsocketURL(), nil)
	require.NoError(t, err)
	defer conn.Close()

	// The hub registers the client asynchronously; keep sending until a
	// frame arrives.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	frames := make(chan string, 1)
	go func() {
		var frame struct {
			Event string `json:"event"`
		}
		if err := conn.ReadJSON(&frame); err == nil {
			frames <- frame.Event
		}
	}()

	deadline := time.After(3 * time.Second)
	for {
		_, err := alice.Send(ctx, "ping")
		require.NoError(t, err)
		select {
		case event := <-frames:
			assert.Equal(t, message.EventMessageCreated, event)
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no nudge received")
		}
	}
}
