package server

import (
	"encoding/json"

	"ctfarena/game"
)

// 出站消息类型
const (
	EventWelcome     = "welcome"
	EventUserJoined  = "user_joined"
	EventUserLeft    = "user_left"
	EventHostLeft    = "host_left"
	EventGameStarted = "game_started"
	EventChat        = "chat"
	EventPositions   = "positions"
	EventError       = "error"
)

type WelcomeEvent struct {
	Type      string `json:"type"`
	Role      Role   `json:"role"`
	SessionID string `json:"session_id"`
	Room      string `json:"room"`
}

type UserJoinedEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	PlayerID  int    `json:"player_id"`
}

// SessionEvent user_left / host_left
type SessionEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

type GameStartedEvent struct {
	Type      string `json:"type"`
	StartedBy string `json:"started_by"`
}

type ChatEvent struct {
	Type    string `json:"type"`
	From    string `json:"from"`
	Content string `json:"content"`
}

// PositionsEvent 每个 Tick 广播的权威快照
type PositionsEvent struct {
	Type string `json:"type"`
	game.Snapshot
}

type ErrorEvent struct {
	Type string `json:"type"`
	*AppError
}

func newErrorEvent(err error) ErrorEvent {
	return ErrorEvent{Type: EventError, AppError: AsAppError(err)}
}

// encodeEvent 序列化出站消息；失败只记录日志，返回 nil
func encodeEvent(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		Log.Errorw("encode event failed", "err", err)
		return nil
	}
	return b
}
