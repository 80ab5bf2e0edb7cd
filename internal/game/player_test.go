package game

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/setgame/internal/config"
	"github.com/lox/setgame/internal/ui"
)

func TestKeyPressedIntakeRules(t *testing.T) {
	d := NewDealer(testSettings(), humans("Alice"), WithLogger(testLogger()))
	p := d.Players()[0]
	require.NoError(t, d.Table().PlaceCard(5, 3))

	assert.False(t, d.KeyPressed(0, 3), "round closed")

	d.gate.Open()
	assert.False(t, d.KeyPressed(0, 4), "slot without a card")
	assert.False(t, d.KeyPressed(7, 3), "unknown player")
	assert.True(t, d.KeyPressed(0, 3))
	assert.Len(t, p.inbox, 1)

	p.frozen.Store(true)
	assert.False(t, d.KeyPressed(0, 3), "frozen")
	assert.Len(t, p.inbox, 1)
}

func TestKeyPressedBlocksWhileInboxFull(t *testing.T) {
	d := NewDealer(testSettings(), humans("Alice"), WithLogger(testLogger()))
	dealSequential(t, d)
	d.gate.Open()
	p := d.Players()[0]

	for slot := range 3 {
		require.True(t, p.KeyPressed(slot))
	}

	result := make(chan bool, 1)
	go func() {
		result <- p.KeyPressed(3)
	}()

	select {
	case <-result:
		t.Fatal("press accepted past capacity")
	case <-time.After(20 * time.Millisecond):
	}

	p.cancel()
	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("blocked press not released by stop")
	}
}

func TestActTogglesMarkers(t *testing.T) {
	d := NewDealer(testSettings(), humans("Alice"), WithLogger(testLogger()))
	dealSequential(t, d)
	round := d.gate.Open()
	p := d.Players()[0]
	ctx := context.Background()

	p.act(ctx, action{slot: 5, round: round})
	assert.True(t, d.Table().HasToken(0, 5))

	p.act(ctx, action{slot: 5, round: round})
	assert.False(t, d.Table().HasToken(0, 5))
	assert.Zero(t, d.Table().TokenCount(0))
}

func TestActDropsStalePresses(t *testing.T) {
	d := NewDealer(testSettings(), humans("Alice"), WithLogger(testLogger()))
	dealSequential(t, d)
	round := d.gate.Open()
	p := d.Players()[0]
	ctx := context.Background()

	p.act(ctx, action{slot: 5, round: round - 1})
	assert.False(t, d.Table().HasToken(0, 5), "press from an earlier round")

	d.gate.Close()
	p.act(ctx, action{slot: 5, round: round})
	assert.False(t, d.Table().HasToken(0, 5), "press consumed while closed")
}

func TestActSubmitsFullGroup(t *testing.T) {
	d := NewDealer(testSettings(), humans("Alice"), WithLogger(testLogger()))
	dealSequential(t, d)
	round := d.gate.Open()
	p := d.Players()[0]
	ctx := context.Background()

	// Pre-deliver the answer so act does not block waiting for a dealer.
	p.verdicts <- VerdictVoid

	p.act(ctx, action{slot: 0, round: round})
	p.act(ctx, action{slot: 1, round: round})
	assert.Zero(t, d.checks.Len())

	p.act(ctx, action{slot: 2, round: round})
	assert.Equal(t, 1, d.checks.Len())
	assert.Equal(t, 3, d.Table().TokenCount(0))
	assert.Empty(t, p.verdicts)

	p.act(ctx, action{slot: 3, round: round})
	assert.False(t, d.Table().HasToken(0, 3), "fourth marker ignored")
	assert.Equal(t, 3, d.Table().TokenCount(0))
}

func TestLegalVerdictScores(t *testing.T) {
	rec := ui.NewRecorder()
	d := NewDealer(testSettings(), humans("Alice", "Bob"), WithLogger(testLogger()), WithSink(rec))
	p := d.Players()[1]

	p.apply(context.Background(), VerdictLegal)
	p.apply(context.Background(), VerdictVoid)

	assert.Equal(t, 1, p.Score())
	assert.Equal(t, []int{0, 1}, d.Scores())
	assert.Equal(t, []ui.Event{{Kind: ui.KindScore, Player: 1, Score: 1}}, rec.Filter(ui.KindScore))
	assert.False(t, p.Frozen())
}

func TestPenaltyFreezeCountsDown(t *testing.T) {
	mClock := quartz.NewMock(t)
	rec := ui.NewRecorder()
	settings := testSettings()
	settings.PenaltyFreeze = 2500 * time.Millisecond
	d := NewDealer(settings, humans("Alice"), WithLogger(testLogger()), WithSink(rec), WithClock(mClock))
	p := d.Players()[0]

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.apply(ctx, VerdictIllegal)
	}()

	for range 3 {
		require.Eventually(t, func() bool {
			_, ok := mClock.Peek()
			return ok
		}, time.Second, time.Millisecond)
		assert.True(t, p.Frozen())
		_, w := mClock.AdvanceNext()
		w.MustWait(ctx)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("freeze did not end")
	}

	var remaining []int64
	for _, e := range rec.Filter(ui.KindFreeze) {
		remaining = append(remaining, e.Millis)
	}
	assert.Equal(t, []int64{2500, 1500, 500, 0}, remaining)
	assert.False(t, p.Frozen())
	assert.Zero(t, p.Score())
}

func TestFreezeAbortsOnStop(t *testing.T) {
	d := NewDealer(testSettings(), humans("Alice"), WithLogger(testLogger()))
	p := d.Players()[0]
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.freeze(ctx, time.Hour)
	}()

	require.Eventually(t, p.Frozen, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("freeze ignored stop")
	}
	assert.False(t, p.Frozen())
}

func TestBotPressesThroughIntake(t *testing.T) {
	d := NewDealer(testSettings(), []config.PlayerConfig{{Name: "Bot 1"}}, WithLogger(testLogger()), WithSeed(7))
	require.Len(t, d.bots, 1)
	dealSequential(t, d)
	d.gate.Open()

	b := d.bots[0]
	p := d.Players()[0]
	go b.run()

	// Nobody consumes the inbox, so the bot fills it and then blocks.
	require.Eventually(t, func() bool {
		return len(p.inbox) == cap(p.inbox)
	}, time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		b.stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("bot blocked on a full inbox did not stop")
	}
}

func TestBotIdlesWhileFrozen(t *testing.T) {
	d := NewDealer(testSettings(), []config.PlayerConfig{{Name: "Bot 1"}}, WithLogger(testLogger()))
	dealSequential(t, d)
	d.gate.Open()

	p := d.Players()[0]
	p.frozen.Store(true)
	b := d.bots[0]
	go b.run()
	defer b.stop()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, p.inbox)
}
