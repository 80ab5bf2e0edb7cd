package game

import (
	"context"
	"io"
	rand "math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/setgame/internal/cards"
	"github.com/lox/setgame/internal/config"
	"github.com/lox/setgame/internal/randutil"
	"github.com/lox/setgame/internal/table"
	"github.com/lox/setgame/internal/ui"
)

// warnTick is the countdown refresh interval once the warning threshold is
// reached. The display shows hundredths of a second.
const warnTick = 10 * time.Millisecond

// actor is a goroutine the dealer starts and later stops.
type actor interface {
	run()
	stop()
}

// Dealer runs the game: it deals, times rounds, judges check requests and
// decides the winners.
type Dealer struct {
	settings config.Game
	eval     *cards.Evaluator
	table    *table.Table
	sink     ui.Sink
	clock    quartz.Clock
	logger   *log.Logger
	seed     int64
	rng      *rand.Rand

	gate    *RoundGate
	checks  *checkQueue
	players []*Player
	bots    []*Bot
	started []actor

	// deck is only touched by the dealer goroutine.
	deck     []int
	deadline atomic.Int64
	over     bool
}

// Option configures a Dealer.
type Option func(*Dealer)

// WithClock sets the clock behind every timer in the game.
func WithClock(clock quartz.Clock) Option {
	return func(d *Dealer) {
		d.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(d *Dealer) {
		d.logger = logger
	}
}

// WithSink sets the display.
func WithSink(sink ui.Sink) Option {
	return func(d *Dealer) {
		d.sink = sink
	}
}

// WithSeed makes shuffling and bot input reproducible.
func WithSeed(seed int64) Option {
	return func(d *Dealer) {
		d.seed = seed
	}
}

// WithDeck replaces the initial deck. Cards are dealt from the front and the
// deck is only shuffled when the board is empty.
func WithDeck(deck []int) Option {
	return func(d *Dealer) {
		d.deck = slices.Clone(deck)
	}
}

// NewDealer creates a dealer and its players. Non-human players get a bot.
func NewDealer(settings config.Game, players []config.PlayerConfig, opts ...Option) *Dealer {
	d := &Dealer{
		settings: settings,
		eval:     cards.NewEvaluator(cards.Layout{FeatureSize: settings.FeatureSize, FeatureCount: settings.FeatureCount}),
		sink:     ui.Null{},
		clock:    quartz.NewReal(),
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		seed:     time.Now().UnixNano(),
		gate:     NewRoundGate(),
		checks:   newCheckQueue(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.deck == nil {
		d.deck = cards.NewDeck(settings.DeckSize)
	}
	d.rng = randutil.New(d.seed)

	d.table = table.New(settings.TableSize, settings.DeckSize, settings.GroupSize(),
		table.WithClock(d.clock),
		table.WithDelay(settings.TableDelay),
		table.WithSink(d.sink),
	)

	playerLogger := d.logger.WithPrefix("player")
	for id, pc := range players {
		p := &Player{
			lifecycle:     newLifecycle(),
			id:            id,
			name:          pc.Name,
			human:         pc.Human,
			inbox:         make(chan action, settings.GroupSize()),
			verdicts:      make(chan Verdict, 1),
			table:         d.table,
			gate:          d.gate,
			checks:        d.checks,
			sink:          d.sink,
			clock:         d.clock,
			logger:        playerLogger.With("player", pc.Name),
			pointFreeze:   settings.PointFreeze,
			penaltyFreeze: settings.PenaltyFreeze,
		}
		d.players = append(d.players, p)
		if pc.Human {
			continue
		}
		d.bots = append(d.bots, &Bot{
			lifecycle: newLifecycle(),
			player:    p,
			gate:      d.gate,
			rng:       randutil.Stream(d.seed, uint64(id)+1),
			slots:     settings.TableSize,
			interval:  settings.BotInterval,
			clock:     d.clock,
			logger:    d.logger.WithPrefix("bot").With("player", pc.Name),
		})
	}

	d.logger = d.logger.WithPrefix("dealer")
	return d
}

// Table returns the shared board.
func (d *Dealer) Table() *table.Table {
	return d.table
}

// Players returns the players in seat order.
func (d *Dealer) Players() []*Player {
	return d.players
}

// Scores returns every player's score in seat order.
func (d *Dealer) Scores() []int {
	scores := make([]int, len(d.players))
	for i, p := range d.players {
		scores[i] = p.Score()
	}
	return scores
}

// RoundOpen reports whether players may currently act.
func (d *Dealer) RoundOpen() bool {
	return d.gate.IsOpen()
}

// Deadline returns when the current round times out.
func (d *Dealer) Deadline() time.Time {
	return time.Unix(0, d.deadline.Load())
}

// KeyPressed routes a key press to player. Unknown players are ignored.
func (d *Dealer) KeyPressed(player, slot int) bool {
	if player < 0 || player >= len(d.players) {
		return false
	}
	return d.players[player].KeyPressed(slot)
}

// Run plays one game. It returns nil when the game is over or ctx is
// cancelled; either way every player and bot has stopped.
func (d *Dealer) Run(ctx context.Context) error {
	d.logger.Info("Game starting", "players", len(d.players), "bots", len(d.bots), "seed", d.seed)
	d.startActors()

	for ctx.Err() == nil {
		d.deal()
		if d.over {
			break
		}
		d.runRound(ctx)
		if d.over || ctx.Err() != nil {
			break
		}
		d.reshuffle()
	}

	d.terminate(ctx)
	return nil
}

func (d *Dealer) startActors() {
	for _, p := range d.players {
		d.start(p)
		for _, b := range d.bots {
			if b.player == p {
				d.start(b)
			}
		}
	}
}

func (d *Dealer) start(a actor) {
	d.started = append(d.started, a)
	go a.run()
}

// deal shuffles the deck if the board is empty and fills every empty slot.
func (d *Dealer) deal() {
	if d.table.CountCards() == 0 {
		cards.Shuffle(d.deck, d.rng)
		if len(d.eval.FindSets(d.deck, 1)) == 0 {
			d.logger.Info("No sets left in the deck", "cards", len(d.deck))
			d.over = true
			return
		}
	}
	d.fill()

	if d.settings.Hints {
		d.logHints()
	}
}

// fill deals from the front of the deck into the lowest empty slots.
func (d *Dealer) fill() {
	for range d.table.EmptySlots() {
		if len(d.deck) == 0 {
			return
		}
		if _, err := d.table.FillEmptySlot(d.deck[0]); err != nil {
			d.logger.Error("Failed to deal card", "card", d.deck[0], "err", err)
			return
		}
		d.deck = d.deck[1:]
	}
}

func (d *Dealer) logHints() {
	layout := d.eval.Layout()
	for _, set := range d.eval.FindSets(d.table.Cards(), 0) {
		slots := make([]int, len(set))
		described := make([]string, len(set))
		for i, card := range set {
			slots[i], _ = d.table.SlotOf(card)
			described[i] = layout.Describe(card)
		}
		d.logger.Info("Hint", "slots", slots, "cards", described)
	}
}

// runRound opens the gate and runs the countdown until it reaches zero, ctx
// is cancelled or a match leaves no legal group anywhere.
func (d *Dealer) runRound(ctx context.Context) {
	deadline := d.resetDeadline()
	d.showCountdown(deadline)
	round := d.gate.Open()
	d.logger.Debug("Round open", "round", round, "cards", d.table.CountCards(), "deck", len(d.deck))

	for {
		if d.checks.Len() == 0 {
			wait := nextTick(deadline.Sub(d.clock.Now()), d.settings.TurnTimeoutWarning)
			if wait > 0 {
				timer := d.clock.NewTimer(wait, "dealer", "countdown")
				select {
				case <-ctx.Done():
				case <-d.checks.Wake():
				case <-timer.C:
				}
				timer.Stop()
			}
		}
		if ctx.Err() != nil {
			return
		}

		if id, ok := d.checks.Pop(); ok && d.processCheck(id) == VerdictLegal {
			deadline = d.resetDeadline()
			if d.exhausted() {
				d.showCountdown(deadline)
				d.over = true
				return
			}
		}

		if d.showCountdown(deadline) <= 0 {
			return
		}
	}
}

// nextTick returns how long to sleep before the display next changes: whole
// seconds normally, warnTick once the warning threshold is reached.
func nextTick(remaining, warning time.Duration) time.Duration {
	if remaining <= 0 {
		return 0
	}
	step := time.Second
	if remaining <= warning {
		step = warnTick
	}
	wait := remaining % step
	if wait == 0 {
		wait = step
	}
	if remaining > warning && remaining-warning < wait {
		wait = remaining - warning
	}
	return wait
}

func (d *Dealer) resetDeadline() time.Time {
	deadline := d.clock.Now().Add(d.settings.TurnTimeout)
	d.deadline.Store(deadline.UnixNano())
	return deadline
}

// showCountdown reports the time left, never below zero, and returns it.
func (d *Dealer) showCountdown(deadline time.Time) time.Duration {
	remaining := max(deadline.Sub(d.clock.Now()), 0)
	d.sink.SetCountdown(remaining, remaining <= d.settings.TurnTimeoutWarning)
	return remaining
}

// processCheck judges the group held by player and delivers the verdict.
func (d *Dealer) processCheck(id int) Verdict {
	p := d.players[id]
	held := d.table.PlayerCards(id)

	if slices.Contains(held, table.NotFound) {
		d.logger.Debug("Check lost a race", "player", p.name)
		p.deliver(VerdictVoid)
		return VerdictVoid
	}

	if !d.eval.TestSet(held) {
		d.logger.Debug("Not a set", "player", p.name, "cards", held)
		p.deliver(VerdictIllegal)
		return VerdictIllegal
	}

	d.logger.Info("Set found", "player", p.name, "cards", held)
	// Release the player before clearing its cards, so the score can reach
	// the sink ahead of the RemoveCard notifications. Keep this order.
	p.deliver(VerdictLegal)
	for _, card := range held {
		if slot, ok := d.table.SlotOf(card); ok {
			d.table.RemoveCard(slot)
		}
	}
	d.fill()
	return VerdictLegal
}

// exhausted reports whether no legal group remains on the table and deck.
func (d *Dealer) exhausted() bool {
	remaining := append(d.table.Cards(), d.deck...)
	return len(d.eval.FindSets(remaining, 1)) == 0
}

// reshuffle closes the round, voids queued checks and returns every card on
// the table to the deck.
func (d *Dealer) reshuffle() {
	d.gate.Close()
	d.voidChecks()
	d.deck = append(d.deck, d.table.RemoveAllCards()...)
	d.logger.Debug("Reshuffling", "deck", len(d.deck))
}

func (d *Dealer) voidChecks() {
	for _, id := range d.checks.Drain() {
		d.players[id].deliver(VerdictVoid)
	}
}

// terminate stops every actor in reverse start order, announces the winners
// and leaves them on screen for EndGamePause.
func (d *Dealer) terminate(ctx context.Context) {
	d.gate.Close()
	d.voidChecks()
	for i := len(d.started) - 1; i >= 0; i-- {
		d.started[i].stop()
	}
	d.started = nil

	scores := d.Scores()
	winners := Winners(scores)
	d.sink.AnnounceWinner(winners)
	d.logger.Info("Game over", "scores", scores, "winners", winners)

	if ctx.Err() != nil || d.settings.EndGamePause <= 0 {
		return
	}
	timer := d.clock.NewTimer(d.settings.EndGamePause, "dealer", "pause")
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Winners returns the ids of every player with the highest score, in
// ascending order.
func Winners(scores []int) []int {
	if len(scores) == 0 {
		return []int{}
	}
	best := slices.Max(scores)
	var winners []int
	for id, score := range scores {
		if score == best {
			winners = append(winners, id)
		}
	}
	return winners
}
