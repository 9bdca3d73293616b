package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/lobbygames/napat/internal/game"
	"github.com/lobbygames/napat/internal/models"
	"github.com/lobbygames/napat/internal/notify"
	"github.com/lobbygames/napat/internal/room"
)

const (
	// finalizeDebounce absorbs near-simultaneous submissions before the
	// host commits the round.
	finalizeDebounce = time.Second
	// forfeitDelay is how long every client waits after seeing a lone
	// survivor before switching its own view to the final results.
	forfeitDelay = 3 * time.Second
)

// Settings are the host-chosen room parameters, fixed at creation.
type Settings struct {
	TotalRounds   int
	TimerDuration int
}

func (s Settings) withDefaults() Settings {
	if s.TotalRounds <= 0 {
		s.TotalRounds = game.DefaultTotalRounds
	}
	if s.TimerDuration <= 0 {
		s.TimerDuration = game.DefaultTimerDuration
	}
	return s
}

// RoomInfo is the read-only answer to a pre-join room lookup.
type RoomInfo struct {
	Exists      bool              `json:"exists"`
	Status      models.RoomStatus `json:"status,omitempty"`
	PlayerCount int               `json:"playerCount"`
	CanJoin     bool              `json:"canJoin"`
	Players     []string          `json:"players,omitempty"`
}

// Snapshot is a deep copy of the client-local session state.
type Snapshot struct {
	State       *models.RoomState
	PlayerName  string
	RoomCode    string
	IsHost      bool
	IsConnected bool
	IsJoining   bool
	Notices     []Notice
}

// Controller is one client's session state machine. It mutates the shared
// room document through the store, merges remote pushes into its local
// view wholesale, and runs the local timers: the per-round countdown, the
// host's finalize debounce, forfeit detection, and notice expiry. The host
// client's controller is the only one that executes round transitions,
// emulating server authority without a server.
type Controller struct {
	store room.Store
	sub   *notify.Subscriber
	clock clockwork.Clock

	mu          sync.Mutex
	state       *models.RoomState
	playerName  string
	roomCode    string
	isHost      bool
	isConnected bool
	isJoining   bool

	tracker   *Tracker
	draft     models.AnswerSet
	submitted bool
	lastRound int

	roundTimer   clockwork.Timer
	debounce     clockwork.Timer
	forfeitTimer clockwork.Timer
	forfeitArmed bool

	events chan Event
}

// NewController creates a controller over the given store and broker.
func NewController(store room.Store, broker notify.Broker, clock clockwork.Clock) *Controller {
	c := &Controller{
		store:  store,
		sub:    notify.NewSubscriber(broker),
		clock:  clock,
		events: make(chan Event, 32),
	}
	c.tracker = NewTracker(clock, c.onNoticeExpired)
	return c
}

// Events is the stream of pushes for the client this controller serves.
// Slow consumers miss events rather than block the session.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Snapshot returns a deep copy of the current local view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:       c.state.Clone(),
		PlayerName:  c.playerName,
		RoomCode:    c.roomCode,
		IsHost:      c.isHost,
		IsConnected: c.isConnected,
		IsJoining:   c.isJoining,
		Notices:     c.tracker.Active(),
	}
}

// CreateRoom generates a fresh room code, writes the initial document with
// the caller as sole host, subscribes to changes, and returns the code. A
// code collision is returned to the caller, who re-invokes; failed remote
// operations are never retried automatically.
func (c *Controller) CreateRoom(ctx context.Context, name string, settings Settings) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyName
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()

	settings = settings.withDefaults()
	code := game.NewRoomCode()
	state := models.NewRoomState(name, settings.TotalRounds, settings.TimerDuration)

	// Subscription failure is non-fatal: the room still works, the client
	// just misses live pushes until it rejoins.
	if err := c.sub.Subscribe(code, c.onRemoteState); err != nil {
		log.Warn().Err(err).Str("room_code", code).Msg("room subscription failed")
	}

	if err := c.store.Create(ctx, code, state); err != nil {
		c.resetLocked()
		return "", err
	}

	c.playerName = name
	c.roomCode = code
	c.isHost = true
	c.isConnected = true
	c.applyStateLocked(state)

	log.Info().Str("room_code", code).Str("player", name).Msg("room created")
	return code, nil
}

// CheckRoomStatus is a read-only lookup that never fails on a missing
// room; an unknown or unreachable room is simply not joinable.
func (c *Controller) CheckRoomStatus(ctx context.Context, code string) RoomInfo {
	state, err := c.store.Fetch(ctx, code)
	if err != nil {
		if !errors.Is(err, room.ErrRoomNotFound) {
			log.Warn().Err(err).Str("room_code", code).Msg("room status check failed")
		}
		return RoomInfo{}
	}

	names := state.PlayerNames()
	sort.Strings(names)
	return RoomInfo{
		Exists:      true,
		Status:      state.Status,
		PlayerCount: state.PlayerCount(),
		CanJoin:     state.Status == models.RoomStatusWaiting && state.PlayerCount() < game.MaxPlayers,
		Players:     names,
	}
}

// JoinRoom adds the caller to an existing waiting room and subscribes to
// its changes.
func (c *Controller) JoinRoom(ctx context.Context, name, code string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(code) == "" {
		return ErrEmptyRoomCode
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.isJoining = true
	defer func() { c.isJoining = false }()

	cur, err := c.store.Fetch(ctx, code)
	if err != nil {
		return err
	}
	if cur.Status != models.RoomStatusWaiting {
		return ErrGameInProgress
	}
	if _, taken := cur.Players[name]; taken {
		return ErrNameTaken
	}
	if cur.PlayerCount() >= game.MaxPlayers {
		return ErrRoomFull
	}

	if err := c.sub.Subscribe(code, c.onRemoteState); err != nil {
		log.Warn().Err(err).Str("room_code", code).Msg("room subscription failed")
	}

	next := cur.Clone()
	next.Players[name] = models.Player{Name: name, IsHost: false, Ready: true}
	next.Scores[name] = 0

	if err := c.store.Update(ctx, code, next); err != nil {
		c.resetLocked()
		return err
	}

	c.playerName = name
	c.roomCode = code
	c.isHost = false
	c.isConnected = true
	c.applyStateLocked(next)

	log.Info().Str("room_code", code).Str("player", name).Msg("joined room")
	return nil
}

// StartGame begins round 1. Host-only; rejected client-side with fewer
// than the minimum player count, before any write.
func (c *Controller) StartGame(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isHost {
		return ErrNotHost
	}
	if c.state == nil {
		return ErrNotInRoom
	}
	if c.state.PlayerCount() < game.MinPlayers {
		return ErrInsufficientPlayers
	}

	next := c.state.Clone()
	next.Status = models.RoomStatusPlaying
	next.CurrentRound = 1
	next.CurrentLetter = game.RandomLetter()
	next.Answers = make(map[string]models.AnswerSet)
	next.RoundScores = make(map[string]int)
	next.Duplicates = make(models.DuplicateMap)

	if err := c.store.Update(ctx, c.roomCode, next); err != nil {
		return err
	}
	c.applyStateLocked(next)

	log.Info().Str("room_code", c.roomCode).Str("letter", next.CurrentLetter).Msg("game started")
	return nil
}

// SetDraft records the answers typed so far; they are what gets
// auto-submitted if the round timer expires first.
func (c *Controller) SetDraft(answers models.AnswerSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = answers
}

// SubmitAnswers merges the caller's answers into the shared document. Any
// player may submit any number of times before the round ends; a later
// submission overwrites the earlier one.
func (c *Controller) SubmitAnswers(ctx context.Context, answers models.AnswerSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitLocked(ctx, answers)
}

func (c *Controller) submitLocked(ctx context.Context, answers models.AnswerSet) error {
	if !c.isConnected || c.state == nil {
		return ErrNotInRoom
	}

	next := c.state.Clone()
	if next.Answers == nil {
		next.Answers = make(map[string]models.AnswerSet)
	}
	next.Answers[c.playerName] = answers

	if err := c.store.Update(ctx, c.roomCode, next); err != nil {
		return err
	}
	c.draft = answers
	c.submitted = true
	c.applyStateLocked(next)
	return nil
}

// ProcessRoundComplete scores the round and either advances to the next
// one or finishes the game. Host-only; it is normally invoked by the
// debounce timer once everyone has submitted or the countdown has hit
// zero, but the gate holds wherever it is called from.
func (c *Controller) ProcessRoundComplete(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isHost {
		return ErrNotHost
	}
	return c.processRoundCompleteLocked(ctx)
}

func (c *Controller) processRoundCompleteLocked(ctx context.Context) error {
	if c.state == nil {
		return ErrNotInRoom
	}
	cur := c.state

	roundScores, duplicates := game.Score(cur.Answers, cur.PlayerNames())

	scores := make(map[string]int, cur.PlayerCount())
	for _, name := range cur.PlayerNames() {
		scores[name] = cur.Scores[name] + roundScores[name]
	}

	next := cur.Clone()
	next.Scores = scores

	if cur.CurrentRound >= cur.TotalRounds {
		next.Status = models.RoomStatusFinal
		next.RoundScores = roundScores
		next.Duplicates = duplicates
	} else {
		next.Status = models.RoomStatusPlaying
		next.CurrentRound = cur.CurrentRound + 1
		next.CurrentLetter = game.RandomLetter()
		next.Answers = make(map[string]models.AnswerSet)
		next.RoundScores = make(map[string]int)
		next.Duplicates = make(models.DuplicateMap)
	}

	if err := c.store.Update(ctx, c.roomCode, next); err != nil {
		return err
	}
	c.applyStateLocked(next)

	log.Info().
		Str("room_code", c.roomCode).
		Int("round", cur.CurrentRound).
		Bool("final", next.Status == models.RoomStatusFinal).
		Msg("round completed")
	return nil
}

// LeaveRoom removes the caller from the shared document, reassigning the
// host role or deleting an emptied room. Local state is reset and the
// subscription released no matter how the write goes.
func (c *Controller) LeaveRoom(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.resetLocked()

	if c.roomCode == "" || c.playerName == "" {
		return nil
	}

	cur, err := c.store.Fetch(ctx, c.roomCode)
	if err != nil {
		log.Warn().Err(err).Str("room_code", c.roomCode).Msg("leave: fetch failed")
		return nil
	}

	next := cur.Clone()
	delete(next.Players, c.playerName)
	delete(next.Scores, c.playerName)
	if !next.HasDisconnected(c.playerName) {
		next.DisconnectedPlayers = append(next.DisconnectedPlayers, c.playerName)
	}

	if c.isHost && len(next.Players) > 0 {
		names := make([]string, 0, len(next.Players))
		for name := range next.Players {
			names = append(names, name)
		}
		sort.Strings(names)
		heir := names[0]
		p := next.Players[heir]
		p.IsHost = true
		next.Players[heir] = p
		next.Host = heir
	}

	if len(next.Players) == 0 {
		if err := c.store.Delete(ctx, c.roomCode); err != nil {
			log.Warn().Err(err).Str("room_code", c.roomCode).Msg("leave: delete failed")
		}
	} else if err := c.store.Update(ctx, c.roomCode, next); err != nil {
		log.Warn().Err(err).Str("room_code", c.roomCode).Msg("leave: update failed")
	}

	log.Info().Str("room_code", c.roomCode).Str("player", c.playerName).Msg("left room")
	return nil
}

// Reset clears all local session state and releases the subscription.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.sub.Unsubscribe()
	c.stopTimer(&c.roundTimer)
	c.stopTimer(&c.debounce)
	c.stopTimer(&c.forfeitTimer)
	c.tracker.Reset()

	c.state = nil
	c.playerName = ""
	c.roomCode = ""
	c.isHost = false
	c.isConnected = false
	c.isJoining = false
	c.draft = models.AnswerSet{}
	c.submitted = false
	c.lastRound = 0
	c.forfeitArmed = false
}

// onRemoteState merges an incoming push into the local view wholesale.
func (c *Controller) onRemoteState(state *models.RoomState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isConnected {
		return
	}
	c.applyStateLocked(state)
}

// applyStateLocked replaces the local view and reacts to what changed:
// round transitions restart the countdown, a full answer sheet arms the
// host's finalize debounce, new departures raise notices, and a lone
// survivor arms the forfeit countdown.
func (c *Controller) applyStateLocked(state *models.RoomState) {
	c.state = state

	for _, notice := range c.tracker.Observe(state.DisconnectedPlayers, c.playerName) {
		n := notice
		c.emit(Event{Type: EventPlayerLeft, Notice: &n})
	}

	switch state.Status {
	case models.RoomStatusPlaying:
		if state.CurrentRound != c.lastRound {
			c.lastRound = state.CurrentRound
			c.submitted = false
			c.draft = models.AnswerSet{}
			c.stopTimer(&c.debounce)
			c.startRoundTimerLocked(state.TimerDuration)
		}
		if c.isHost && state.PlayerCount() > 0 && len(state.Answers) == state.PlayerCount() {
			c.armFinalizeLocked()
		}
	default:
		c.stopTimer(&c.roundTimer)
		c.stopTimer(&c.debounce)
	}

	inProgress := state.Status == models.RoomStatusPlaying || state.Status == models.RoomStatusRoundComplete
	if inProgress && state.PlayerCount() == 1 && !c.forfeitArmed {
		c.forfeitArmed = true
		winner := state.PlayerNames()[0]
		c.emit(Event{Type: EventForfeitWin, Winner: winner})
		c.forfeitTimer = c.clock.AfterFunc(forfeitDelay, func() {
			c.finishForfeit(winner)
		})
	}

	c.emit(Event{Type: EventRoomState, State: state.Clone()})
}

// startRoundTimerLocked (re)starts the per-round countdown.
func (c *Controller) startRoundTimerLocked(seconds int) {
	c.stopTimer(&c.roundTimer)
	c.roundTimer = c.clock.AfterFunc(time.Duration(seconds)*time.Second, c.onRoundTimerExpired)
}

// onRoundTimerExpired auto-submits the draft answers and, on the host,
// arms the finalize debounce.
func (c *Controller) onRoundTimerExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil || c.state.Status != models.RoomStatusPlaying {
		return
	}
	if !c.submitted {
		if err := c.submitLocked(context.Background(), c.draft); err != nil {
			log.Warn().Err(err).Str("room_code", c.roomCode).Msg("auto-submit failed")
		}
	}
	if c.isHost {
		c.armFinalizeLocked()
	}
}

// armFinalizeLocked schedules the host's round finalization after the
// debounce window, unless one is already pending.
func (c *Controller) armFinalizeLocked() {
	if c.debounce != nil {
		return
	}
	c.debounce = c.clock.AfterFunc(finalizeDebounce, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.debounce = nil
		if !c.isHost || c.state == nil || c.state.Status != models.RoomStatusPlaying {
			return
		}
		if err := c.processRoundCompleteLocked(context.Background()); err != nil {
			log.Error().Err(err).Str("room_code", c.roomCode).Msg("round finalization failed")
		}
	})
}

// finishForfeit flips this client's own view to the final results. Every
// client evaluates this independently; no write to the shared document is
// needed since it is a pure function of replicated state.
func (c *Controller) finishForfeit(winner string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil || c.state.PlayerCount() != 1 {
		c.forfeitArmed = false
		return
	}
	next := c.state.Clone()
	next.Status = models.RoomStatusFinal
	c.state = next

	log.Info().Str("room_code", c.roomCode).Str("winner", winner).Msg("forfeit win")
	c.emit(Event{Type: EventRoomState, State: next.Clone()})
}

// stopTimer stops and clears a pending timer, if any.
func (c *Controller) stopTimer(t *clockwork.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (c *Controller) onNoticeExpired(id string) {
	c.emit(Event{Type: EventNoticeExpired, NoticeID: id})
}

func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		log.Warn().Str("event", string(ev.Type)).Msg("event buffer full, dropping")
	}
}
