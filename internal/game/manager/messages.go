package manager

import (
	"context"
	"errors"
	"time"

	"AutoHoldem/internal/game/engine"
	"AutoHoldem/internal/game/table"
	"AutoHoldem/internal/utils"
	"AutoHoldem/internal/websocket"
)

const messageTimeout = 5 * time.Second

// playerMessage 上行消息的 data
type playerMessage struct {
	TableID   string           `json:"tableId"`
	Type      table.ActionType `json:"type"`
	Amount    int64            `json:"amount"`
	RequestID string           `json:"requestId"`
}

// HandlePlayerMessage 统一入口（来自 Hub.OnIncoming）
func (m *GameManager) HandlePlayerMessage(msg websocket.IncomingMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	var in playerMessage
	if err := msg.Decode(&in); err != nil {
		m.reject(msg.From, "", err)
		return
	}
	if in.TableID == "" {
		id, ok := m.TableOf(msg.From)
		if !ok {
			m.reject(msg.From, "", ErrUnknownTable)
			return
		}
		in.TableID = id
	}

	switch msg.Event {
	case websocket.EventPlayerAction:
		_, err := m.SubmitAction(ctx, in.TableID, table.Action{
			Type:      in.Type,
			Amount:    in.Amount,
			UserID:    msg.From,
			RequestID: in.RequestID,
		})
		if err != nil {
			m.reject(msg.From, in.TableID, err)
		}

	case websocket.EventRequestState:
		view, version, err := m.PlayerView(ctx, in.TableID, msg.From)
		if err != nil {
			m.reject(msg.From, in.TableID, err)
			return
		}
		m.hub.SendToPlayer(msg.From, websocket.OutgoingMessage{
			Event: websocket.EventHandPrivate,
			Data:  map[string]any{"tableId": in.TableID, "version": version, "state": view},
		})

	default:
		utils.Log.Debug("ignore player message", "from", msg.From, "event", msg.Event)
	}
}

func (m *GameManager) reject(to, tableID string, err error) {
	data := map[string]any{"tableId": tableID, "error": err.Error()}
	var v *engine.ValidationError
	if errors.As(err, &v) {
		data["code"] = v.Code
	}
	m.hub.SendToPlayer(to, websocket.OutgoingMessage{Event: websocket.EventActionRejected, Data: data})
}
