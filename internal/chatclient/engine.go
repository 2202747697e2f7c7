package chatclient

import (
	"context"
	"sync"
	"time"

	"groupchat/internal/app/message"

	"go.uber.org/zap"
)

const DefaultPollInterval = 10 * time.Second

// Source is the part of the API the engine polls.
type Source interface {
	FetchAll(ctx context.Context) ([]*message.Message, error)
	FetchSince(ctx context.Context, since time.Time) ([]message.ClassifiedMessage, error)
}

// Presenter receives the outcome of every sync cycle.
type Presenter interface {
	MessagesChanged(messages []*message.Message)
	Notice(text string)
	LoginRequired()
	Fault(err error)
}

// Engine owns the cursor and the displayed-list mirror. Cycles are
// serialized: at most one request is in flight and the timer is re-armed
// only after a cycle resolves.
type Engine struct {
	source    Source
	presenter Presenter
	interval  time.Duration
	now       func() time.Time
	logger    *zap.SugaredLogger

	cycleMu sync.Mutex
	mu      sync.RWMutex
	view    *View
	cursor  time.Time
	loaded  bool

	refresh chan struct{}
}

type EngineOption func(*Engine)

func WithInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithEngineClock replaces the clock that produces candidate cursors.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(source Source, presenter Presenter, logger *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		source:    source,
		presenter: presenter,
		interval:  DefaultPollInterval,
		now:       time.Now,
		logger:    logger.Sugar(),
		view:      NewView(),
		refresh:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Refresh asks for an out-of-band cycle. Requests made while one is already
// pending collapse into it.
func (e *Engine) Refresh() {
	select {
	case e.refresh <- struct{}{}:
	default:
	}
}

// Cursor returns the last committed cursor.
func (e *Engine) Cursor() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursor
}

// Messages returns a snapshot of the displayed list.
func (e *Engine) Messages() []*message.Message {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view.Messages()
}

// Run performs the initial full fetch, then polls until ctx ends. A failed
// cycle is reported to the presenter and never stops the loop.
func (e *Engine) Run(ctx context.Context) error {
	_ = e.SyncOnce(ctx)

	timer := time.NewTimer(e.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-e.refresh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		_ = e.SyncOnce(ctx)
		timer.Reset(e.interval)
	}
}

// SyncOnce runs one cycle: a full fetch until the first one succeeds, a
// delta fetch afterwards. The candidate cursor is captured before the
// request and committed only on success.
func (e *Engine) SyncOnce(ctx context.Context) error {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	e.mu.RLock()
	since, loaded := e.cursor, e.loaded
	e.mu.RUnlock()

	candidate := e.now().UTC()

	var (
		changed bool
		err     error
	)
	if !loaded {
		changed, err = e.fullFetch(ctx, candidate)
	} else {
		changed, err = e.deltaFetch(ctx, since, candidate)
	}
	if err != nil {
		if ctx.Err() == nil {
			e.report(err)
		}
		return err
	}

	if changed {
		e.presenter.MessagesChanged(e.Messages())
	}
	return nil
}

func (e *Engine) fullFetch(ctx context.Context, candidate time.Time) (bool, error) {
	all, err := e.source.FetchAll(ctx)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	e.view.Replace(all)
	e.cursor = candidate
	e.loaded = true
	e.mu.Unlock()

	e.logger.Debugw("Full fetch applied", "messages", len(all), "cursor", candidate)
	return true, nil
}

func (e *Engine) deltaFetch(ctx context.Context, since, candidate time.Time) (bool, error) {
	batch, err := e.source.FetchSince(ctx, since)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	changed := e.view.Apply(batch)
	e.cursor = candidate
	e.mu.Unlock()

	if len(batch) > 0 {
		e.logger.Debugw("Delta applied", "rows", len(batch), "changed", changed, "cursor", candidate)
	}
	return changed, nil
}

func (e *Engine) report(err error) {
	reaction := ClassifyError(err)
	e.logger.Debugw("Sync cycle failed", "action", reaction.Action.String(), "error", err)

	switch reaction.Action {
	case ActionLogin:
		e.presenter.LoginRequired()
	case ActionNotice:
		e.presenter.Notice(reaction.Notice)
	default:
		e.presenter.Fault(err)
	}
}
