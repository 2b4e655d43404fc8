// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/oranges-tui/internal/logging"
	"github.com/jeranaias/oranges-tui/internal/model"
)

var testEpoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

func newTestEngine(t *testing.T) (*Engine, fakeClock) {
	t.Helper()
	clk := clockwork.NewFakeClockAt(testEpoch)
	e := New(Config{
		DefaultModel: model.FastJuices,
		Clock:        clk,
		Logger:       logging.Discard(),
	})
	t.Cleanup(e.Close)
	return e, clk
}

// advance moves the fake clock forward and waits for a reply that fell due.
func advance(t *testing.T, e *Engine, clk fakeClock, d time.Duration) {
	t.Helper()
	clk.Advance(d)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.WaitIdle(ctx), "reply did not arrive after %v", d)
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSubmit_FastModelScenario(t *testing.T) {
	e, clk := newTestEngine(t)

	require.True(t, e.Submit("Hello"))

	s := e.Snapshot()
	require.NotNil(t, s.Active)
	require.Len(t, s.Active.Messages, 1)
	assert.Equal(t, model.RoleUser, s.Active.Messages[0].Role)
	assert.Equal(t, "Hello", s.Active.Messages[0].Content)
	assert.Equal(t, StateAwaitingReply, s.State)
	assert.Equal(t, testEpoch.Add(500*time.Millisecond), s.ReplyDueAt)

	clk.Advance(499 * time.Millisecond)
	assert.Equal(t, StateAwaitingReply, e.State())

	advance(t, e, clk, time.Millisecond)

	s = e.Snapshot()
	assert.Equal(t, StateIdle, s.State)
	require.Len(t, s.Active.Messages, 2)
	reply := s.Active.Messages[1]
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Equal(t, model.FastJuices.Response(), reply.Content)
	assert.Equal(t, testEpoch.Add(500*time.Millisecond), s.Active.UpdatedAt)
}

func TestSubmit_LatencyPerModel(t *testing.T) {
	for _, m := range model.All() {
		t.Run(string(m), func(t *testing.T) {
			e, clk := newTestEngine(t)
			require.NoError(t, e.SelectModel(m))
			require.True(t, e.Submit("ping"))

			clk.Advance(m.Latency() - time.Millisecond)
			assert.Equal(t, StateAwaitingReply, e.State())

			advance(t, e, clk, time.Millisecond)
			msgs := e.Snapshot().Messages()
			require.Len(t, msgs, 2)
			assert.Equal(t, model.RoleUser, msgs[0].Role)
			assert.Equal(t, model.RoleAssistant, msgs[1].Role)
			assert.Equal(t, m.Response(), msgs[1].Content)
		})
	}
}

func TestSubmit_BlankInputIgnored(t *testing.T) {
	inputs := []string{"", " ", "   ", "\n\t", "\u00a0"}

	for _, in := range inputs {
		t.Run(strconv.Quote(in), func(t *testing.T) {
			e, _ := newTestEngine(t)
			before := e.Snapshot()

			assert.False(t, e.Submit(in))

			after := e.Snapshot()
			assert.Equal(t, before.Version, after.Version)
			assert.Equal(t, StateIdle, after.State)
			assert.Nil(t, after.Active)
			assert.Empty(t, after.Conversations)
		})
	}
}

func TestSubmit_RejectedWhileAwaitingReply(t *testing.T) {
	e, clk := newTestEngine(t)
	require.True(t, e.Submit("first"))

	assert.False(t, e.Submit("second"))
	assert.Len(t, e.Snapshot().Messages(), 1)

	advance(t, e, clk, 500*time.Millisecond)
	assert.Len(t, e.Snapshot().Messages(), 2)

	require.True(t, e.Submit("second"))
	advance(t, e, clk, 500*time.Millisecond)

	msgs := e.Snapshot().Messages()
	require.Len(t, msgs, 4)
	for i, msg := range msgs {
		want := model.RoleUser
		if i%2 == 1 {
			want = model.RoleAssistant
		}
		assert.Equal(t, want, msg.Role, "message %d", i)
	}
}

func TestSubmit_NormalizesInput(t *testing.T) {
	e, _ := newTestEngine(t)
	require.True(t, e.Submit("Cafe\u0301"))
	assert.Equal(t, "Caf\u00e9", e.Snapshot().Messages()[0].Content)
}

func TestSubmit_KeepsSurroundingWhitespace(t *testing.T) {
	e, _ := newTestEngine(t)
	require.True(t, e.Submit("  hi  "))
	assert.Equal(t, "  hi  ", e.Snapshot().Messages()[0].Content)
}

// =============================================================================
// MODEL SELECTION TESTS
// =============================================================================

func TestSelectModel_DoesNotAffectPendingReply(t *testing.T) {
	e, clk := newTestEngine(t)
	require.True(t, e.Submit("Hello"))

	require.NoError(t, e.SelectModel(model.Juices))
	s := e.Snapshot()
	assert.Equal(t, model.Juices, s.SelectedModel)
	assert.Equal(t, model.FastJuices, s.PendingModel)

	advance(t, e, clk, 500*time.Millisecond)
	msgs := e.Snapshot().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.FastJuices.Response(), msgs[1].Content)
	assert.Equal(t, model.FastJuices, msgs[1].Model)

	// The next submission uses the newly selected model.
	require.True(t, e.Submit("again"))
	clk.Advance(2999 * time.Millisecond)
	assert.Equal(t, StateAwaitingReply, e.State())
	advance(t, e, clk, time.Millisecond)

	msgs = e.Snapshot().Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, model.Juices.Response(), msgs[3].Content)
	assert.Equal(t, model.Juices, msgs[3].Model, "reply credited to the model that produced it")
	assert.Equal(t, model.FastJuices, msgs[1].Model, "earlier reply keeps its model")
	assert.Empty(t, msgs[2].Model)
}

func TestSelectModel_KeepsConversationModel(t *testing.T) {
	e, clk := newTestEngine(t)
	require.True(t, e.Submit("Hello"))
	advance(t, e, clk, 500*time.Millisecond)

	require.NoError(t, e.SelectModel(model.PureJuice))
	assert.Equal(t, model.FastJuices, e.Snapshot().Active.Model)
}

func TestSelectModel_Unknown(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.SelectModel("gpt-4o")
	assert.ErrorIs(t, err, model.ErrUnknownModel)
	assert.Equal(t, model.FastJuices, e.SelectedModel())
}

func TestToggleDeepThink(t *testing.T) {
	e, _ := newTestEngine(t)

	got, err := e.ToggleDeepThink(model.Juices)
	require.NoError(t, err)
	assert.Equal(t, model.Juices, got)

	got, err = e.ToggleDeepThink(model.PureJuice)
	require.NoError(t, err)
	assert.Equal(t, model.FastJuices, got)
	assert.Equal(t, model.FastJuices, e.SelectedModel())

	_, err = e.ToggleDeepThink(model.FastJuices)
	assert.ErrorIs(t, err, model.ErrUnknownModel)
}

// =============================================================================
// CONVERSATION LIFECYCLE TESTS
// =============================================================================

func TestSubmit_CreatesConversation(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.SelectModel(model.PureJuice))
	require.True(t, e.Submit("Hello"))

	s := e.Snapshot()
	require.Len(t, s.Conversations, 1)
	conv := s.Conversations[0]
	assert.Same(t, s.Active, conv)
	assert.Equal(t, strconv.FormatInt(testEpoch.UnixMilli(), 10), conv.ID)
	assert.Equal(t, "Hello", conv.Name)
	assert.Equal(t, model.PureJuice, conv.Model)
}

func TestSubmit_TruncatesConversationName(t *testing.T) {
	e, _ := newTestEngine(t)
	text := "A very long message exceeding fifty characters used to test name truncation....."
	require.True(t, e.Submit(text))

	name := e.Snapshot().Active.Name
	assert.Equal(t, text[:50]+"...", name)
}

func TestNewSession_KeepsPreviousConversation(t *testing.T) {
	e, clk := newTestEngine(t)
	require.True(t, e.Submit("Hello"))
	advance(t, e, clk, 500*time.Millisecond)
	require.NoError(t, e.SelectModel(model.Juices))

	require.True(t, e.NewSession())

	s := e.Snapshot()
	assert.Nil(t, s.Active)
	assert.Nil(t, s.Messages())
	assert.Equal(t, model.Juices, s.SelectedModel)
	require.Len(t, s.Conversations, 1)
	assert.Equal(t, 2, s.Conversations[0].MessageCount())
}

func TestNewSession_SecondConversationListedFirst(t *testing.T) {
	e, clk := newTestEngine(t)
	require.True(t, e.Submit("first"))
	advance(t, e, clk, 500*time.Millisecond)
	firstID := e.Snapshot().Active.ID

	require.True(t, e.NewSession())
	require.True(t, e.Submit("new"))

	s := e.Snapshot()
	require.Len(t, s.Conversations, 2)
	assert.Equal(t, "new", s.Conversations[0].Name)
	assert.Same(t, s.Active, s.Conversations[0])
	assert.NotEqual(t, firstID, s.Conversations[0].ID)
	assert.Equal(t, firstID, s.Conversations[1].ID)
	assert.Equal(t, 2, s.Conversations[1].MessageCount())
}

func TestNewSession_RejectedWhileAwaitingReply(t *testing.T) {
	e, _ := newTestEngine(t)
	require.True(t, e.Submit("Hello"))

	assert.False(t, e.NewSession())
	assert.NotNil(t, e.Snapshot().Active)
}

func TestNextID_DistinctWithinSameMillisecond(t *testing.T) {
	e, _ := newTestEngine(t)

	first := e.nextID(testEpoch)
	second := e.nextID(testEpoch)
	earlier := e.nextID(testEpoch.Add(-time.Second))

	base := testEpoch.UnixMilli()
	assert.Equal(t, strconv.FormatInt(base, 10), first)
	assert.Equal(t, strconv.FormatInt(base+1, 10), second)
	assert.Equal(t, strconv.FormatInt(base+2, 10), earlier)
}

func TestLoadConversation(t *testing.T) {
	e, clk := newTestEngine(t)
	require.True(t, e.Submit("old"))
	advance(t, e, clk, 500*time.Millisecond)
	oldID := e.Snapshot().Active.ID

	require.True(t, e.NewSession())
	require.NoError(t, e.SelectModel(model.Juices))
	require.True(t, e.Submit("newer"))
	advance(t, e, clk, 3*time.Second)

	require.NoError(t, e.LoadConversation(oldID))

	s := e.Snapshot()
	require.NotNil(t, s.Active)
	assert.Equal(t, oldID, s.Active.ID)
	assert.Equal(t, model.FastJuices, s.SelectedModel)

	// Continuing the loaded conversation appends to it.
	require.True(t, e.Submit("more"))
	advance(t, e, clk, 500*time.Millisecond)
	conv, ok := e.Snapshot().Find(oldID)
	require.True(t, ok)
	assert.Equal(t, 4, conv.MessageCount())
}

func TestLoadConversation_NotFound(t *testing.T) {
	e, clk := newTestEngine(t)
	require.True(t, e.Submit("Hello"))
	advance(t, e, clk, 500*time.Millisecond)
	before := e.Snapshot()

	err := e.LoadConversation("does-not-exist")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConversationNotFound))

	after := e.Snapshot()
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Active.ID, after.Active.ID)
	assert.Equal(t, before.SelectedModel, after.SelectedModel)
}

func TestLoadConversation_WhileAwaitingReply(t *testing.T) {
	e, clk := newTestEngine(t)
	require.True(t, e.Submit("Hello"))
	advance(t, e, clk, 500*time.Millisecond)
	id := e.Snapshot().Active.ID

	require.True(t, e.Submit("again"))
	assert.ErrorIs(t, e.LoadConversation(id), ErrReplyPending)
}

// =============================================================================
// SNAPSHOT TESTS
// =============================================================================

func TestSnapshot_IsIsolated(t *testing.T) {
	e, _ := newTestEngine(t)
	require.True(t, e.Submit("Hello"))

	s := e.Snapshot()
	s.Active.Messages[0].Content = "tampered"
	s.Conversations = nil

	fresh := e.Snapshot()
	require.Len(t, fresh.Conversations, 1)
	assert.Equal(t, "Hello", fresh.Active.Messages[0].Content)
}

func TestSnapshot_MostRecentlyUpdated(t *testing.T) {
	e, clk := newTestEngine(t)
	require.True(t, e.Submit("first"))
	advance(t, e, clk, 500*time.Millisecond)
	firstID := e.Snapshot().Active.ID

	require.True(t, e.NewSession())
	clk.Advance(time.Minute)
	require.True(t, e.Submit("second"))
	advance(t, e, clk, 500*time.Millisecond)

	// Continue the older conversation so it becomes the latest update.
	require.NoError(t, e.LoadConversation(firstID))
	clk.Advance(time.Minute)
	require.True(t, e.Submit("bump"))
	advance(t, e, clk, 500*time.Millisecond)

	s := e.Snapshot()
	assert.Equal(t, "second", s.Conversations[0].Name)
	assert.Equal(t, firstID, s.MostRecentlyUpdated().ID)
}

// =============================================================================
// OBSERVER TESTS
// =============================================================================

func TestOnChange_SeesEveryTransition(t *testing.T) {
	e, clk := newTestEngine(t)

	var (
		mu     sync.Mutex
		states []State
	)
	e.OnChange(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s.State)
	})

	require.True(t, e.Submit("Hello"))
	advance(t, e, clk, 500*time.Millisecond)
	require.NoError(t, e.SelectModel(model.PureJuice))
	require.True(t, e.NewSession())
	e.Submit("   ")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateAwaitingReply, StateIdle, StateIdle, StateIdle}, states)
}

func TestOnChange_VersionOrderUnderConcurrency(t *testing.T) {
	e, _ := newTestEngine(t)

	var (
		mu       sync.Mutex
		versions []uint64
	)
	e.OnChange(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		versions = append(versions, s.Version)
	})

	const writers, perWriter = 8, 25
	models := model.All()
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = e.SelectModel(models[(w+i)%len(models)])
			}
		}(w)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, versions, writers*perWriter)
	for i, v := range versions {
		assert.Equal(t, uint64(i+1), v, "snapshot %d out of order", i)
	}
}

func TestOnChange_ObserverMayCallEngine(t *testing.T) {
	e, clk := newTestEngine(t)

	var (
		mu    sync.Mutex
		seen  []State
		fired bool
	)
	e.OnChange(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s.State)
		first := !fired && s.State == StateAwaitingReply
		fired = fired || first
		mu.Unlock()

		if first {
			// Queued behind the current snapshot rather than delivered inline.
			_ = e.SelectModel(model.PureJuice)
		}
	})

	require.True(t, e.Submit("Hello"))
	advance(t, e, clk, 500*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateAwaitingReply, StateAwaitingReply, StateIdle}, seen)
	assert.Equal(t, model.PureJuice, e.SelectedModel())
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestWaitIdle_ContextCanceled(t *testing.T) {
	e, _ := newTestEngine(t)
	require.True(t, e.Submit("Hello"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.WaitIdle(ctx), context.DeadlineExceeded)
}

func TestWaitIdle_ReturnsImmediatelyWhenIdle(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.NoError(t, e.WaitIdle(context.Background()))
}

func TestClose_DropsPendingReply(t *testing.T) {
	e, clk := newTestEngine(t)
	require.True(t, e.Submit("Hello"))

	e.Close()
	require.NoError(t, e.WaitIdle(context.Background()))

	clk.Advance(time.Second)
	assert.Len(t, e.Snapshot().Messages(), 1)
	assert.False(t, e.Submit("after close"))
}

func TestClose_RejectsFurtherChanges(t *testing.T) {
	e, clk := newTestEngine(t)
	require.True(t, e.Submit("Hello"))
	advance(t, e, clk, 500*time.Millisecond)
	id := e.Snapshot().Active.ID

	e.Close()

	assert.ErrorIs(t, e.SelectModel(model.Juices), ErrClosed)
	assert.ErrorIs(t, e.LoadConversation(id), ErrClosed)
	assert.False(t, e.NewSession())
	_, err := e.ToggleDeepThink(model.Juices)
	assert.ErrorIs(t, err, ErrClosed)

	s := e.Snapshot()
	assert.Equal(t, model.FastJuices, s.SelectedModel)
	assert.Equal(t, id, s.Active.ID)
}
