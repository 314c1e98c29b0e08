package registry

import (
	"context"

	"github.com/rps-showdown/backend/internal/game"
	"github.com/rps-showdown/backend/internal/protocol"
)

// SessionState is the room's lifecycle mode. Only the transitions handled in
// registry.go are legal; anything else is ignored.
type SessionState string

const (
	StateWaiting   SessionState = "waiting"   // one seat filled
	StateReady     SessionState = "ready"     // both seats filled, collecting choices
	StateCountdown SessionState = "countdown" // tick sequence running
	StateResult    SessionState = "result"    // outcome broadcast, awaiting rematch
)

const maxPlayers = 2

// Player is owned by its Room and only ever touched from the registry loop.
type Player struct {
	ConnID string
	Name   string
	Choice game.Choice // empty until submitted for the current round
	Ready  bool
	Outbox chan protocol.ServerMessage
}

type Room struct {
	Code    string
	Players []*Player
	State   SessionState

	// countdownSeq invalidates stale timer fires; cancelCountdown tears the
	// running tick goroutine down when the room is destroyed.
	countdownSeq    int
	cancelCountdown context.CancelFunc
}

func (rm *Room) player(connID string) *Player {
	for _, p := range rm.Players {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (rm *Room) hasName(name string) bool {
	for _, p := range rm.Players {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (rm *Room) removePlayer(connID string) bool {
	for i, p := range rm.Players {
		if p.ConnID == connID {
			rm.Players = append(rm.Players[:i], rm.Players[i+1:]...)
			return true
		}
	}
	return false
}

func (rm *Room) bothReady() bool {
	if len(rm.Players) != maxPlayers {
		return false
	}
	for _, p := range rm.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (rm *Room) resetChoices() {
	for _, p := range rm.Players {
		p.Choice = ""
		p.Ready = false
	}
}

// stopCountdown cancels any running tick goroutine and bumps the sequence so
// an already-fired tick message is dropped on arrival.
func (rm *Room) stopCountdown() {
	if rm.cancelCountdown != nil {
		rm.cancelCountdown()
		rm.cancelCountdown = nil
	}
	rm.countdownSeq++
}

// roster is the choice-hiding projection used by every broadcast except
// gameResult.
func (rm *Room) roster() []protocol.PlayerView {
	views := make([]protocol.PlayerView, 0, len(rm.Players))
	for _, p := range rm.Players {
		views = append(views, protocol.PlayerView{ID: p.ConnID, Name: p.Name, Ready: p.Ready})
	}
	return views
}

// revealed is the gameResult projection: choices shown, ready already cleared
// for the next round.
func (rm *Room) revealed() []protocol.PlayerView {
	views := make([]protocol.PlayerView, 0, len(rm.Players))
	for _, p := range rm.Players {
		views = append(views, protocol.PlayerView{ID: p.ConnID, Name: p.Name, Choice: string(p.Choice)})
	}
	return views
}
