package chatclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"groupchat/internal/app/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu        sync.Mutex
	all       []*message.Message
	allErr    error
	deltas    [][]message.ClassifiedMessage
	deltaErrs []error
	sinces    []time.Time
	calls     chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{calls: make(chan struct{}, 64)}
}

func (f *fakeSource) FetchAll(ctx context.Context) ([]*message.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { f.calls <- struct{}{} }()
	return f.all, f.allErr
}

func (f *fakeSource) FetchSince(ctx context.Context, since time.Time) ([]message.ClassifiedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { f.calls <- struct{}{} }()

	f.sinces = append(f.sinces, since)
	var (
		batch []message.ClassifiedMessage
		err   error
	)
	if len(f.deltaErrs) > 0 {
		err, f.deltaErrs = f.deltaErrs[0], f.deltaErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(f.deltas) > 0 {
		batch, f.deltas = f.deltas[0], f.deltas[1:]
	}
	return batch, nil
}

func (f *fakeSource) Sinces() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.sinces...)
}

type recorder struct {
	mu      sync.Mutex
	changes int
	notices []string
	logins  int
	faults  []error
}

func (r *recorder) MessagesChanged([]*message.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes++
}

func (r *recorder) Notice(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, text)
}

func (r *recorder) LoginRequired() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins++
}

func (r *recorder) Fault(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults = append(r.faults, err)
}

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func TestSyncOnceCommitsCursorOnlyOnSuccess(t *testing.T) {
	src := newFakeSource()
	first := msg(1, "hi", 0)
	src.all = []*message.Message{&first}
	src.deltaErrs = []error{&StatusError{Code: http.StatusInternalServerError}, nil}
	src.deltas = [][]message.ClassifiedMessage{{classified(msg(1, "hello", time.Minute), message.StatusUpdated)}}

	rec := &recorder{}
	clock := &steppingClock{now: t0}
	e := NewEngine(src, rec, zap.NewNop(), WithEngineClock(clock.Now))
	ctx := context.Background()

	// Initial full fetch.
	require.NoError(t, e.SyncOnce(ctx))
	c1 := e.Cursor()
	assert.Equal(t, t0.Add(time.Second), c1)
	assert.Equal(t, 1, rec.changes)

	// Failed delta keeps the cursor.
	require.Error(t, e.SyncOnce(ctx))
	assert.Equal(t, c1, e.Cursor())
	require.Len(t, rec.faults, 1)

	// Retry asks for the same window and commits the later candidate.
	require.NoError(t, e.SyncOnce(ctx))
	assert.Equal(t, []time.Time{c1, c1}, src.Sinces())
	assert.Equal(t, t0.Add(3*time.Second), e.Cursor())
	assert.Equal(t, "hello", e.Messages()[0].Content)
	assert.Equal(t, 2, rec.changes)
}

func TestSyncOnceRetriesFullFetchUntilLoaded(t *testing.T) {
	src := newFakeSource()
	src.allErr = errors.New("connection refused")
	rec := &recorder{}
	e := NewEngine(src, rec, zap.NewNop())
	ctx := context.Background()

	require.Error(t, e.SyncOnce(ctx))
	assert.True(t, e.Cursor().IsZero())

	src.mu.Lock()
	src.allErr = nil
	src.mu.Unlock()

	require.NoError(t, e.SyncOnce(ctx))
	assert.False(t, e.Cursor().IsZero())
	assert.Empty(t, src.Sinces(), "no delta request before the first full fetch succeeds")
	assert.Empty(t, rec.faults)
	assert.Equal(t, []string{NoticeUnreachable}, rec.notices)
}

func TestSyncOnceRoutesFailures(t *testing.T) {
	src := newFakeSource()
	src.deltaErrs = []error{
		&StatusError{Code: http.StatusUnauthorized, Message: "Session expired"},
		&StatusError{Code: http.StatusBadRequest, Message: "Can not retrieve messages"},
		&StatusError{Code: http.StatusNotFound},
	}
	rec := &recorder{}
	e := NewEngine(src, rec, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, e.SyncOnce(ctx))
	for i := 0; i < 3; i++ {
		_ = e.SyncOnce(ctx)
	}

	assert.Equal(t, 1, rec.logins)
	assert.Equal(t, []string{"Can not retrieve messages", NoticeNotFound}, rec.notices)
	assert.Empty(t, rec.faults)
}

func TestRunSurvivesFailuresAndHonoursRefresh(t *testing.T) {
	src := newFakeSource()
	src.deltaErrs = []error{errors.New("timeout"), nil}
	src.deltas = [][]message.ClassifiedMessage{{classified(msg(5, "late", 0), message.StatusNew)}}

	rec := &recorder{}
	e := NewEngine(src, rec, zap.NewNop(), WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	waitCall := func() {
		t.Helper()
		select {
		case <-src.calls:
		case <-time.After(2 * time.Second):
			t.Fatal("engine did not poll")
		}
	}

	waitCall() // full fetch at start

	e.Refresh()
	waitCall() // failing delta

	e.Refresh()
	waitCall() // successful delta, loop is still alive

	require.Eventually(t, func() bool { return len(e.Messages()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.faults)
	assert.Equal(t, []string{NoticeUnreachable}, rec.notices)
}

func TestRunPollsOnInterval(t *testing.T) {
	src := newFakeSource()
	e := NewEngine(src, &recorder{}, zap.NewNop(), WithInterval(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = e.Run(ctx) }()

	require.Eventually(t, func() bool { return len(src.Sinces()) >= 2 }, 2*time.Second, 5*time.Millisecond)
}
