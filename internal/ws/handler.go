package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rps-showdown/backend/internal/game"
	"github.com/rps-showdown/backend/internal/protocol"
	"github.com/rps-showdown/backend/internal/registry"
)

const (
	outboxSize   = 16
	writeTimeout = 3 * time.Second
)

// Handler upgrades the connection, assigns it an ephemeral identity and pumps
// events between the socket and the registry. However the connection ends,
// the deferred Leave converges with an explicit leaveRoom.
func Handler(reg *registry.Registry, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Warnw("websocket upgrade failed", "err", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		outbox := make(chan protocol.ServerMessage, outboxSize)
		log.Infow("connection open", "conn", connID)

		defer func() {
			reg.Inbox() <- registry.Leave{ConnID: connID}
			log.Infow("connection closed", "conn", connID)
		}()

		// Writer goroutine: drains the outbox until the connection ends or the
		// registry closes the outbox on shutdown. The registry keeps outboxes
		// open across a normal leave, so the writer must also watch writeCtx
		// or it outlives the connection.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case msg, ok := <-outbox:
					if !ok {
						conn.Close(websocket.StatusGoingAway, "server shutting down")
						return
					}
					payload, err := json.Marshal(msg)
					if err != nil {
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
				case <-writeCtx.Done():
					return
				}
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				// clean close or drop; Leave in the defer either way
				return
			}

			var cm protocol.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				outbox <- protocol.ErrorMessage("bad json")
				continue
			}

			msg, ok := toRegistryMsg(cm, connID, outbox)
			if !ok {
				outbox <- protocol.ErrorMessage("unknown event")
				continue
			}
			reg.Inbox() <- msg
		}
	}
}

func toRegistryMsg(cm protocol.ClientMessage, connID string, outbox chan protocol.ServerMessage) (registry.Msg, bool) {
	switch cm.Type {
	case protocol.EvtCreateRoom:
		return registry.CreateRoom{ConnID: connID, PlayerName: cm.PlayerName, Outbox: outbox}, true
	case protocol.EvtJoinRoom:
		return registry.JoinRoom{ConnID: connID, RoomCode: cm.RoomID, PlayerName: cm.PlayerName, Outbox: outbox}, true
	case protocol.EvtMakeChoice:
		choice, err := game.ParseChoice(cm.Choice)
		if err != nil {
			return nil, false
		}
		return registry.SubmitChoice{ConnID: connID, Choice: choice}, true
	case protocol.EvtPlayAgain:
		return registry.PlayAgain{ConnID: connID}, true
	case protocol.EvtLeaveRoom:
		return registry.Leave{ConnID: connID}, true
	default:
		return nil, false
	}
}
