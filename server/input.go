package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"ctfarena/game"
)

// 入站消息类型（WebSocket 文本消息，按 type 字段区分）
// 示例：{"type":"move","dx":1,"dy":0}
const (
	ClientStartGame = "start_game"
	ClientChat      = "chat"
	ClientMove      = "move"
)

var errUnknownEvent = errors.New("unrecognized client event")

// ClientEvent 客户端入站消息
type ClientEvent struct {
	Type    string
	Content string
	Move    game.Move
}

type rawClientEvent struct {
	Type    string  `json:"type"`
	Content *string `json:"content"`
	Dx      *int    `json:"dx"`
	Dy      *int    `json:"dy"`
}

// ParseClientEvent 解析入站消息；无法识别的载荷返回错误，由调用方按聊天文本处理
func ParseClientEvent(payload []byte) (ClientEvent, error) {
	var raw rawClientEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ClientEvent{}, err
	}
	switch raw.Type {
	case ClientStartGame:
		return ClientEvent{Type: ClientStartGame}, nil
	case ClientChat:
		if raw.Content == nil {
			return ClientEvent{}, fmt.Errorf("%w: chat without content", errUnknownEvent)
		}
		return ClientEvent{Type: ClientChat, Content: *raw.Content}, nil
	case ClientMove:
		if raw.Dx == nil || raw.Dy == nil {
			return ClientEvent{}, fmt.Errorf("%w: move without dx/dy", errUnknownEvent)
		}
		return ClientEvent{Type: ClientMove, Move: game.NewMove(*raw.Dx, *raw.Dy)}, nil
	default:
		return ClientEvent{}, fmt.Errorf("%w: %q", errUnknownEvent, raw.Type)
	}
}
