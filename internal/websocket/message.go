package websocket

import "encoding/json"

type OutgoingMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type IncomingMessage struct {
	From  string          `json:"from"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// 下行事件
const (
	EventRoomReady       = "room_ready"
	EventHandState       = "hand_state"   // 公开视图，广播给整桌
	EventHandPrivate     = "hand_private" // 带自己底牌的视图，只发给本人
	EventHandEvents      = "hand_events"
	EventActionRejected  = "action_rejected"
	EventAutoplayStopped = "autoplay_stopped"
)

// 上行事件
const (
	EventPlayerAction = "player_action"
	EventRequestState = "request_state"
)

// Decode 把上行消息的 data 解到 v
func (m IncomingMessage) Decode(v any) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}
