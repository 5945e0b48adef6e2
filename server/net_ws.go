package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 跨域限制由 HTTP 层的 CORS 中间件负责
		return true
	},
}

// ClientConn 一个 WebSocket 连接：单协程同时处理出站队列、入站消息与进程退出信号
type ClientConn struct {
	ws        *websocket.Conn
	rooms     *RoomManager
	cfg       WSConfig
	room      string
	role      Role
	sessionID string
	playerID  int
	sender    *Sender
	log       *zap.SugaredLogger
}

// HandleWS WebSocket 接入：/ws/rooms/:key?role=host|player
func (s *Server) HandleWS(c *gin.Context) {
	key := c.Param("key")
	// 房间不存在时直接返回结构化错误，不会顺带创建房间
	if _, err := s.rooms.Room(key); err != nil {
		writeError(c, err)
		return
	}
	role, err := ParseRole(c.Query("role"))
	if err != nil {
		writeError(c, err)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		Log.Warnw("upgrade error", "room", key, "err", err)
		return
	}

	client := &ClientConn{
		ws:        ws,
		rooms:     s.rooms,
		cfg:       s.cfg.WS,
		room:      key,
		role:      role,
		sessionID: uuid.NewString(),
		playerID:  NoPlayer,
	}
	client.log = Log.With("room", key, "session", client.sessionID, "role", client.role)
	client.serve(s.ctx)
}

// serve 连接主循环，返回时连接已关闭
func (c *ClientConn) serve(ctx context.Context) {
	defer c.ws.Close()

	sender, err := c.rooms.AddSender(c.room)
	if err != nil {
		c.fail(err)
		return
	}
	c.sender = sender
	defer sender.Close()

	welcome := WelcomeEvent{Type: EventWelcome, Role: c.role, SessionID: c.sessionID, Room: c.room}
	if err := c.write(encodeEvent(welcome)); err != nil {
		return
	}

	if c.role == RolePlayer {
		slot, err := c.rooms.AddPlayer(c.room)
		if err != nil {
			c.log.Infow("join rejected", "err", err)
			c.fail(err)
			return
		}
		c.playerID = slot
		c.log = c.log.With("player", slot)
		_ = c.rooms.BroadcastEvent(c.room, UserJoinedEvent{Type: EventUserJoined, SessionID: c.sessionID, PlayerID: slot})
	}
	c.log.Infow("connected")
	defer c.announceLeave()

	stop := make(chan struct{})
	defer close(stop)
	inbound := make(chan []byte)
	go c.readPump(inbound, stop)

	pingTicker := time.NewTicker(c.cfg.PongWait * 9 / 10)
	defer pingTicker.Stop()

	for {
		// 进程退出优先处理
		select {
		case <-ctx.Done():
			c.closeWith(websocket.CloseGoingAway, "server shutting down")
			return
		default:
		}

		select {
		case <-ctx.Done():
			c.closeWith(websocket.CloseGoingAway, "server shutting down")
			return
		case <-c.sender.Done():
			c.closeWith(websocket.CloseNormalClosure, "room closed")
			return
		case msg := <-c.sender.C():
			if err := c.write(msg); err != nil {
				c.log.Debugw("write failed", "err", err)
				return
			}
		case payload, ok := <-inbound:
			if !ok {
				return
			}
			c.handleMessage(payload)
		case <-pingTicker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 独立协程读取客户端消息，转交给主循环；连接出错或关闭时关闭 inbound
func (c *ClientConn) readPump(inbound chan<- []byte, stop <-chan struct{}) {
	defer close(inbound)
	c.ws.SetReadLimit(c.cfg.ReadLimit)
	c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		msgType, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debugw("read failed", "err", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		select {
		case inbound <- payload:
		case <-stop:
			return
		}
	}
}

// handleMessage 把入站消息翻译为注册表操作；错误只影响本连接
func (c *ClientConn) handleMessage(payload []byte) {
	ev, err := ParseClientEvent(payload)
	if err != nil {
		// 无法识别的载荷按聊天文本原样转发
		c.chat(string(payload))
		return
	}

	switch ev.Type {
	case ClientStartGame:
		if c.role != RoleHost {
			c.log.Debugw("start_game ignored from non-host")
			return
		}
		_ = c.rooms.BroadcastEvent(c.room, GameStartedEvent{Type: EventGameStarted, StartedBy: c.sessionID})
		if _, err := c.rooms.StartGame(c.room); err != nil {
			c.log.Warnw("start game failed", "err", err)
		}
	case ClientChat:
		c.chat(ev.Content)
	case ClientMove:
		if c.role != RolePlayer {
			return
		}
		if err := c.rooms.UpdateMove(c.room, c.playerID, ev.Move); err != nil {
			c.log.Debugw("move rejected", "err", err)
		}
	}
}

func (c *ClientConn) chat(content string) {
	if err := c.rooms.Chat(c.room, c.sessionID, content); err != nil {
		c.log.Debugw("chat dropped", "err", err)
	}
}

// announceLeave 连接断开时通知房间；玩家位与待处理输入保留
func (c *ClientConn) announceLeave() {
	typ := EventUserLeft
	if c.role == RoleHost {
		typ = EventHostLeft
	}
	_ = c.rooms.BroadcastEvent(c.room, SessionEvent{Type: typ, SessionID: c.sessionID})
	c.log.Infow("disconnected")
}

func (c *ClientConn) write(msg []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	return c.ws.WriteMessage(websocket.TextMessage, msg)
}

// fail 发送结构化错误后关闭连接
func (c *ClientConn) fail(err error) {
	ae := AsAppError(err)
	_ = c.write(encodeEvent(newErrorEvent(ae)))
	c.closeWith(websocket.ClosePolicyViolation, string(ae.Kind))
}

func (c *ClientConn) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.cfg.WriteWait))
}
