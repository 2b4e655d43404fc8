// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/oranges-tui/internal/logging"
	"github.com/jeranaias/oranges-tui/internal/model"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds configuration for the engine.
type Config struct {
	// DefaultModel is selected at start (default: fast-juices)
	DefaultModel model.Model

	// Clock schedules replies. Tests inject a fake clock.
	Clock clockwork.Clock

	// Logger receives transition logs at debug level
	Logger *log.Logger
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		DefaultModel: model.DefaultModel,
		Clock:        clockwork.NewRealClock(),
		Logger:       logging.Logger,
	}
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine owns the conversation collection, the active selection and the
// pending reply. It is the only mutator of that state.
type Engine struct {
	mu sync.Mutex

	clock  clockwork.Clock
	logger *log.Logger

	// Session state
	selected      model.Model
	active        *model.Conversation
	conversations []*model.Conversation

	// Turn state. idle is closed whenever pending is nil.
	pending *pendingReply
	idle    chan struct{}

	lastID  int64
	version uint64
	closed  bool

	// Snapshots wait in queue until flush hands them to observers, one
	// drainer at a time, in version order.
	observers []func(Snapshot)
	queue     []notification
	draining  bool
}

// notification is a queued snapshot. done, when set, is closed after every
// observer has seen the snapshot.
type notification struct {
	snap Snapshot
	done chan struct{}
}

// pendingReply is a reply whose content and timing were fixed when the
// user message was submitted.
type pendingReply struct {
	conversation *model.Conversation
	model        model.Model
	content      string
	dueAt        time.Time
	timer        clockwork.Timer
}

// New creates an engine in the Idle state with no active conversation.
func New(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Logger
	}
	if !cfg.DefaultModel.Valid() {
		cfg.DefaultModel = model.DefaultModel
	}

	idle := make(chan struct{})
	close(idle)

	return &Engine{
		clock:    cfg.Clock,
		logger:   cfg.Logger.WithPrefix("engine"),
		selected: cfg.DefaultModel,
		idle:     idle,
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Submit sends text as a user message. It returns false, changing nothing,
// when text is blank, when a reply is still pending or after Close.
//
// On acceptance the message is appended to the active conversation (a new
// conversation is created first if none is active) and a reply from the
// currently selected model is scheduled after that model's latency.
func (e *Engine) Submit(text string) bool {
	if strings.TrimSpace(text) == "" {
		e.logger.Debug("submit ignored", "reason", ErrEmptyInput)
		return false
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	if e.pending != nil {
		e.mu.Unlock()
		e.logger.Debug("submit ignored", "reason", ErrReplyPending)
		return false
	}

	now := e.clock.Now()
	msg := model.NewUserMessage(norm.NFC.String(text), now)

	conv := e.active
	if conv == nil {
		conv = model.NewConversation(e.nextID(now), e.selected, msg)
		e.conversations = append([]*model.Conversation{conv}, e.conversations...)
		e.active = conv
		e.logger.Debug("conversation created", "id", conv.ID, "name", conv.Name, "model", conv.Model)
	} else if err := conv.AddMessage(msg); err != nil {
		e.mu.Unlock()
		e.logger.Error("submit rejected", "conversation", conv.ID, "err", err)
		return false
	}

	m := e.selected
	p := &pendingReply{
		conversation: conv,
		model:        m,
		content:      m.Response(),
		dueAt:        now.Add(m.Latency()),
	}
	e.pending = p
	e.idle = make(chan struct{})
	p.timer = e.clock.AfterFunc(m.Latency(), func() { e.deliver(p) })

	e.logger.Debug("reply scheduled", "conversation", conv.ID, "model", m, "delay", m.Latency())
	e.transitionLocked(nil)
	e.mu.Unlock()

	e.flush()
	return true
}

// deliver appends the scheduled reply. It runs on the clock's goroutine.
func (e *Engine) deliver(p *pendingReply) {
	e.mu.Lock()
	if e.pending != p {
		e.mu.Unlock()
		return
	}

	reply := model.NewReply(p.model, p.content, p.dueAt)
	if err := p.conversation.AddMessage(reply); err != nil {
		e.logger.Error("reply dropped", "conversation", p.conversation.ID, "err", err)
	}
	e.pending = nil

	e.logger.Debug("reply delivered", "conversation", p.conversation.ID, "model", p.model)
	// Waiters are released only after observers have seen the reply.
	e.transitionLocked(e.idle)
	e.mu.Unlock()

	e.flush()
}

// SelectModel changes the model used by future submissions. A reply that
// is already scheduled keeps the content and delay it was scheduled with.
func (e *Engine) SelectModel(m model.Model) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownModel, m)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.selected = m
	e.logger.Debug("model selected", "model", m)
	e.transitionLocked(nil)
	e.mu.Unlock()

	e.flush()
	return nil
}

// ToggleDeepThink mirrors the dashboard's deep-think button: while a deep
// think model is selected it switches back to the fast model, otherwise it
// selects target. It returns the model now selected.
func (e *Engine) ToggleDeepThink(target model.Model) (model.Model, error) {
	if !target.IsDeepThink() {
		return "", fmt.Errorf("%w: %q is not a deep think model", model.ErrUnknownModel, target)
	}

	next := target
	if e.SelectedModel().IsDeepThink() {
		next = model.FastJuices
	}
	if err := e.SelectModel(next); err != nil {
		return "", err
	}
	return next, nil
}

// NewSession clears the active conversation so the next submission starts
// a new one. Existing conversations stay in the collection and the
// selected model is kept. It returns false while a reply is pending or
// after Close.
func (e *Engine) NewSession() bool {
	e.mu.Lock()
	if e.pending != nil || e.closed {
		e.mu.Unlock()
		return false
	}

	e.active = nil
	e.logger.Debug("new session")
	e.transitionLocked(nil)
	e.mu.Unlock()

	e.flush()
	return true
}

// LoadConversation makes the conversation with the given ID active and
// selects the model it was created with. It fails with
// ErrConversationNotFound for an unknown ID and ErrReplyPending while a
// reply is outstanding; in both cases state is unchanged. After Close it
// returns ErrClosed.
func (e *Engine) LoadConversation(id string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.pending != nil {
		e.mu.Unlock()
		return ErrReplyPending
	}

	conv := e.findLocked(id)
	if conv == nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}

	e.active = conv
	e.selected = conv.Model
	e.logger.Debug("conversation loaded", "id", id, "model", conv.Model)
	e.transitionLocked(nil)
	e.mu.Unlock()

	e.flush()
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// State returns the current turn state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		return StateAwaitingReply
	}
	return StateIdle
}

// SelectedModel returns the model used by the next submission.
func (e *Engine) SelectedModel() model.Model {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// WaitIdle blocks until no reply is pending or ctx is done.
func (e *Engine) WaitIdle(ctx context.Context) error {
	e.mu.Lock()
	idle := e.idle
	e.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================
// OBSERVERS
// =============================================================================

// OnChange registers fn to receive a snapshot after every transition.
// Snapshots arrive in version order, one at a time. Observers may run on
// the clock's goroutine and must not block; they may call back into the
// engine.
func (e *Engine) OnChange(fn func(Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// flush hands queued snapshots to observers. If another goroutine (or an
// observer further up this stack) is already draining, it returns at once
// and that drainer delivers the queued snapshots.
func (e *Engine) flush() {
	e.mu.Lock()
	if e.draining {
		e.mu.Unlock()
		return
	}
	e.draining = true

	for len(e.queue) > 0 {
		n := e.queue[0]
		e.queue = e.queue[1:]
		observers := make([]func(Snapshot), len(e.observers))
		copy(observers, e.observers)
		e.mu.Unlock()

		for _, fn := range observers {
			fn(n.snap)
		}
		if n.done != nil {
			close(n.done)
		}

		e.mu.Lock()
	}

	e.draining = false
	e.mu.Unlock()
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Close stops a pending reply timer and rejects further submissions,
// model selections and loads.
// Waiters blocked in WaitIdle are released.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	if e.pending != nil {
		e.pending.timer.Stop()
		e.pending = nil
		close(e.idle)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// nextID returns the creation time in milliseconds, bumped past the last
// issued ID so two conversations created in the same millisecond differ.
func (e *Engine) nextID(now time.Time) string {
	id := now.UnixMilli()
	if id <= e.lastID {
		id = e.lastID + 1
	}
	e.lastID = id
	return strconv.FormatInt(id, 10)
}

func (e *Engine) findLocked(id string) *model.Conversation {
	for _, conv := range e.conversations {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// transitionLocked bumps the version and queues a snapshot for observers.
func (e *Engine) transitionLocked(done chan struct{}) {
	e.version++
	e.queue = append(e.queue, notification{snap: e.snapshotLocked(), done: done})
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		Version:       e.version,
		State:         StateIdle,
		SelectedModel: e.selected,
		Conversations: make([]*model.Conversation, len(e.conversations)),
	}
	for i, conv := range e.conversations {
		clone := conv.Clone()
		s.Conversations[i] = clone
		if conv == e.active {
			s.Active = clone
		}
	}
	if e.pending != nil {
		s.State = StateAwaitingReply
		s.PendingModel = e.pending.model
		s.ReplyDueAt = e.pending.dueAt
	}
	return s
}
