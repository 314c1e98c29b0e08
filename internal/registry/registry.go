// Package registry owns every room and the connection -> room index. All
// mutation flows through a single goroutine consuming typed inbox messages, so
// no two operations on the same room ever race and read-modify-write sequences
// like "both ready, start countdown" are atomic.
package registry

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/rps-showdown/backend/internal/code"
	"github.com/rps-showdown/backend/internal/game"
	"github.com/rps-showdown/backend/internal/protocol"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrNameTaken    = errors.New("name already taken")
)

const (
	tickInterval = time.Second
	resolveDelay = 500 * time.Millisecond
)

// countdownSteps is the fixed cadence: three preparatory ticks then the start
// signal. Resolution follows resolveDelay after the last step.
var countdownSteps = []struct {
	Count   int
	Caption string
}{
	{3, "rock"},
	{2, "paper"},
	{1, "scissors"},
	{0, "go"},
}

type Msg interface{ isRegistryMsg() }

type CreateRoom struct {
	ConnID     string
	PlayerName string
	Outbox     chan protocol.ServerMessage
}

func (CreateRoom) isRegistryMsg() {}

type JoinRoom struct {
	ConnID     string
	RoomCode   string
	PlayerName string
	Outbox     chan protocol.ServerMessage
}

func (JoinRoom) isRegistryMsg() {}

type SubmitChoice struct {
	ConnID string
	Choice game.Choice
}

func (SubmitChoice) isRegistryMsg() {}

type PlayAgain struct{ ConnID string }

func (PlayAgain) isRegistryMsg() {}

// Leave covers both the explicit leaveRoom event and a dropped connection;
// the two entry points must converge to the same state.
type Leave struct{ ConnID string }

func (Leave) isRegistryMsg() {}

type Shutdown struct{}

func (Shutdown) isRegistryMsg() {}

// GetRoom reflects a room's internal state without data races; used by tests.
type GetRoom struct {
	Code  string
	Reply chan *RoomView
}

func (GetRoom) isRegistryMsg() {}

type RoomView struct {
	Code    string
	State   SessionState
	Players []PlayerInfo
}

type PlayerInfo struct {
	ConnID string
	Name   string
	Choice game.Choice
	Ready  bool
}

// countdownTick and resolveRound are posted back into the inbox by the tick
// goroutine, so they execute on the registry loop like any other event.
type countdownTick struct {
	Code    string
	Seq     int
	Count   int
	Caption string
}

func (countdownTick) isRegistryMsg() {}

type resolveRound struct {
	Code string
	Seq  int
}

func (resolveRound) isRegistryMsg() {}

type Registry struct {
	inbox  chan Msg
	rooms  map[string]*Room
	conns  map[string]string // connID -> room code, back-reference only
	clock  clockwork.Clock
	log    *zap.SugaredLogger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, clk clockwork.Clock, log *zap.SugaredLogger) *Registry {
	ctx, cancel := context.WithCancel(parent)
	r := &Registry{
		inbox:  make(chan Msg, 64),
		rooms:  make(map[string]*Room),
		conns:  make(map[string]string),
		clock:  clk,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go r.loop()
	return r
}

func (r *Registry) Inbox() chan<- Msg { return r.inbox }

func (r *Registry) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				r.handleCreate(msg)
			case JoinRoom:
				r.handleJoin(msg)
			case SubmitChoice:
				r.handleChoice(msg)
			case PlayAgain:
				r.handlePlayAgain(msg)
			case Leave:
				r.handleLeave(msg.ConnID)
			case countdownTick:
				r.handleTick(msg)
			case resolveRound:
				r.handleResolve(msg)
			case GetRoom:
				msg.Reply <- r.view(msg.Code)
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Registry) handleCreate(msg CreateRoom) {
	// a connection holds at most one seat; creating again vacates the old one
	r.handleLeave(msg.ConnID)

	roomCode := code.Generate()
	for {
		if _, exists := r.rooms[roomCode]; !exists {
			break
		}
		roomCode = code.Generate()
	}

	rm := &Room{
		Code:    roomCode,
		Players: []*Player{{ConnID: msg.ConnID, Name: msg.PlayerName, Outbox: msg.Outbox}},
		State:   StateWaiting,
	}
	r.rooms[roomCode] = rm
	r.conns[msg.ConnID] = roomCode

	r.log.Infow("room created", "room", roomCode, "player", msg.PlayerName)
	r.broadcast(rm, protocol.ServerMessage{
		Type:    protocol.EvtRoomCreated,
		RoomID:  roomCode,
		Players: rm.roster(),
	})
}

func (r *Registry) handleJoin(msg JoinRoom) {
	rm, ok := r.rooms[msg.RoomCode]
	if !ok {
		r.sendTo(msg.Outbox, protocol.ErrorMessage(ErrRoomNotFound.Error()))
		return
	}
	if len(rm.Players) >= maxPlayers {
		r.sendTo(msg.Outbox, protocol.ErrorMessage(ErrRoomFull.Error()))
		return
	}
	if rm.hasName(msg.PlayerName) {
		r.sendTo(msg.Outbox, protocol.ErrorMessage(ErrNameTaken.Error()))
		return
	}

	// validated; now vacate any seat this connection already holds. If it was
	// the sole player of this very room, the room is gone and the join fails.
	r.handleLeave(msg.ConnID)
	rm, ok = r.rooms[msg.RoomCode]
	if !ok {
		r.sendTo(msg.Outbox, protocol.ErrorMessage(ErrRoomNotFound.Error()))
		return
	}

	// a fresh join demotes whatever the drained room was left in back to
	// waiting semantics before seating the newcomer
	rm.stopCountdown()
	rm.resetChoices()
	rm.State = StateWaiting

	rm.Players = append(rm.Players, &Player{ConnID: msg.ConnID, Name: msg.PlayerName, Outbox: msg.Outbox})
	r.conns[msg.ConnID] = rm.Code
	if len(rm.Players) == maxPlayers {
		rm.State = StateReady
	}

	r.log.Infow("player joined", "room", rm.Code, "player", msg.PlayerName)
	r.broadcast(rm, protocol.ServerMessage{
		Type:    protocol.EvtRoomJoined,
		RoomID:  rm.Code,
		Players: rm.roster(),
	})
	if rm.State == StateReady {
		r.broadcast(rm, protocol.ServerMessage{
			Type:    protocol.EvtGameReady,
			Players: rm.roster(),
		})
	}
}

func (r *Registry) handleChoice(msg SubmitChoice) {
	rm := r.roomOf(msg.ConnID)
	if rm == nil {
		return
	}
	p := rm.player(msg.ConnID)
	if p == nil {
		return
	}

	// late or out-of-phase submissions don't mutate anything, but the sender
	// still gets a snapshot to resync against
	if rm.State == StateCountdown || rm.State == StateResult {
		r.broadcast(rm, protocol.ServerMessage{
			Type:    protocol.EvtPlayerReady,
			Players: rm.roster(),
		})
		return
	}

	p.Choice = msg.Choice
	p.Ready = true

	r.broadcast(rm, protocol.ServerMessage{
		Type:    protocol.EvtPlayerReady,
		Players: rm.roster(),
	})

	if rm.State == StateReady && rm.bothReady() {
		r.startCountdown(rm)
	}
}

func (r *Registry) handlePlayAgain(msg PlayAgain) {
	rm := r.roomOf(msg.ConnID)
	if rm == nil || rm.State != StateResult || len(rm.Players) != maxPlayers {
		return
	}
	rm.resetChoices()
	rm.State = StateReady
	r.broadcast(rm, protocol.ServerMessage{
		Type:    protocol.EvtGameReady,
		Players: rm.roster(),
	})
}

func (r *Registry) handleLeave(connID string) {
	roomCode, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)

	rm, ok := r.rooms[roomCode]
	if !ok {
		return
	}
	if !rm.removePlayer(connID) {
		return
	}

	if len(rm.Players) == 0 {
		rm.stopCountdown()
		delete(r.rooms, roomCode)
		r.log.Infow("room destroyed", "room", roomCode)
		return
	}

	r.log.Infow("player left", "room", roomCode)
	r.broadcast(rm, protocol.ServerMessage{
		Type:    protocol.EvtPlayerLeft,
		Players: rm.roster(),
	})
}

// startCountdown flips the room into Countdown and spawns the tick goroutine.
// The goroutine never touches the room: it only sleeps and posts messages
// carrying the room code plus sequence number, which are re-validated here.
func (r *Registry) startCountdown(rm *Room) {
	rm.stopCountdown()
	rm.State = StateCountdown
	seq := rm.countdownSeq

	ctx, cancel := context.WithCancel(r.ctx)
	rm.cancelCountdown = cancel

	r.log.Infow("countdown started", "room", rm.Code)
	go r.runCountdown(ctx, rm.Code, seq)
}

func (r *Registry) runCountdown(ctx context.Context, roomCode string, seq int) {
	for _, step := range countdownSteps {
		select {
		case <-r.clock.After(tickInterval):
		case <-ctx.Done():
			return
		}
		select {
		case r.inbox <- countdownTick{Code: roomCode, Seq: seq, Count: step.Count, Caption: step.Caption}:
		case <-ctx.Done():
			return
		}
	}

	select {
	case <-r.clock.After(resolveDelay):
	case <-ctx.Done():
		return
	}
	select {
	case r.inbox <- resolveRound{Code: roomCode, Seq: seq}:
	case <-ctx.Done():
	}
}

func (r *Registry) handleTick(msg countdownTick) {
	rm, ok := r.rooms[msg.Code]
	if !ok || rm.State != StateCountdown || rm.countdownSeq != msg.Seq {
		return // room destroyed or countdown superseded; drop the stale fire
	}
	count := msg.Count
	r.broadcast(rm, protocol.ServerMessage{
		Type:    protocol.EvtCountdown,
		Count:   &count,
		Message: msg.Caption,
	})
}

func (r *Registry) handleResolve(msg resolveRound) {
	rm, ok := r.rooms[msg.Code]
	if !ok || rm.State != StateCountdown || rm.countdownSeq != msg.Seq {
		return
	}
	// release the finished countdown's context; the tick goroutine has
	// already exited, so the cancel is a pure cleanup
	rm.stopCountdown()

	// a departure mid-countdown can leave a lone seat; nothing to resolve
	if len(rm.Players) != maxPlayers || rm.Players[0].Choice == "" || rm.Players[1].Choice == "" {
		return
	}

	var result string
	switch game.Resolve(rm.Players[0].Choice, rm.Players[1].Choice) {
	case game.OutcomeFirstWins:
		result = protocol.ResultPlayer1
	case game.OutcomeSecondWins:
		result = protocol.ResultPlayer2
	default:
		result = protocol.ResultTie
	}

	views := rm.revealed()
	rm.resetChoices()
	rm.State = StateResult

	r.log.Infow("round resolved", "room", rm.Code, "result", result)
	r.broadcast(rm, protocol.ServerMessage{
		Type:    protocol.EvtGameResult,
		Players: views,
		Result:  result,
	})
}

func (r *Registry) roomOf(connID string) *Room {
	roomCode, ok := r.conns[connID]
	if !ok {
		return nil
	}
	return r.rooms[roomCode]
}

func (r *Registry) view(roomCode string) *RoomView {
	rm, ok := r.rooms[roomCode]
	if !ok {
		return nil
	}
	v := &RoomView{Code: rm.Code, State: rm.State}
	for _, p := range rm.Players {
		v.Players = append(v.Players, PlayerInfo{ConnID: p.ConnID, Name: p.Name, Choice: p.Choice, Ready: p.Ready})
	}
	return v
}

func (r *Registry) broadcast(rm *Room, msg protocol.ServerMessage) {
	for _, p := range rm.Players {
		r.sendTo(p.Outbox, msg)
	}
}

func (r *Registry) sendTo(outbox chan protocol.ServerMessage, msg protocol.ServerMessage) {
	select {
	case outbox <- msg:
	default:
		r.log.Warnw("outbox full, dropping event", "event", msg.Type)
	}
}

func (r *Registry) shutdown() {
	for roomCode, rm := range r.rooms {
		rm.stopCountdown()
		for _, p := range rm.Players {
			close(p.Outbox)
			delete(r.conns, p.ConnID)
		}
		delete(r.rooms, roomCode)
	}
	r.cancel()
}
