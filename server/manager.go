package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"ctfarena/game"
)

const maxKeyAttempts = 1000

// RoomManager 进程内唯一的房间注册表
// 一把读写锁保护房间表以及每个房间的字段：修改走写锁，只读快照走读锁
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	ctx    context.Context // 进程级生命周期，取消后所有 Tick 循环退出
	cancel context.CancelFunc

	tickInterval   time.Duration
	defaultPlayers int
	sendBuffer     int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRoomManager 创建房间注册表；ctx 结束时所有房间的 Tick 循环随之停止
func NewRoomManager(ctx context.Context, cfg Config) *RoomManager {
	ctx, cancel := context.WithCancel(ctx)
	return &RoomManager{
		rooms:          make(map[string]*Room),
		ctx:            ctx,
		cancel:         cancel,
		tickInterval:   cfg.TickInterval,
		defaultPlayers: cfg.DefaultPlayers,
		sendBuffer:     cfg.WS.SendBuffer,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// newKey 随机 6 位数字房间号
func (m *RoomManager) newKey() string {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return fmt.Sprintf("%06d", m.rng.Intn(1_000_000))
}

// CreateRoom 创建房间并返回房间号；players 为 0 时使用默认人数
func (m *RoomManager) CreateRoom(players int) (string, error) {
	if players == 0 {
		players = m.defaultPlayers
	}
	sim, err := game.NewState(players)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < maxKeyAttempts; i++ {
		key := m.newKey()
		if _, exists := m.rooms[key]; exists {
			continue
		}
		m.rooms[key] = newRoom(key, sim)
		Log.Infow("room created", "room", key, "players", players)
		return key, nil
	}
	return "", errors.New("could not allocate a free room key")
}

// Room 返回房间概览
func (m *RoomManager) Room(key string) (RoomInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[key]
	if !ok {
		return RoomInfo{}, ErrRoomNotFound
	}
	return r.info(), nil
}

// ListRooms 按房间号排序返回所有房间概览
func (m *RoomManager) ListRooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// DeleteRoom 删除房间：停止 Tick 循环并关闭所有出站队列
func (m *RoomManager) DeleteRoom(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[key]
	if !ok {
		return ErrRoomNotFound
	}
	r.close()
	delete(m.rooms, key)
	Log.Infow("room deleted", "room", key)
	return nil
}

// ResetRoom 重开一局：位置、旗帜与比分归零，玩家名单保留
func (m *RoomManager) ResetRoom(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[key]
	if !ok {
		return ErrRoomNotFound
	}
	r.sim.Reset()
	for slot := range r.pending {
		r.pending[slot] = game.MoveStay
	}
	Log.Infow("room reset", "room", key)
	return nil
}

// AddSender 为新连接注册出站队列；无论角色都会收到房间广播
func (m *RoomManager) AddSender(key string) (*Sender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[key]
	if !ok {
		return nil, ErrRoomNotFound
	}
	s := newSender(m.sendBuffer)
	r.senders = append(r.senders, s)
	return s, nil
}

// AddPlayer 分配最小的空闲玩家位
func (m *RoomManager) AddPlayer(key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[key]
	if !ok {
		return NoPlayer, ErrRoomNotFound
	}
	slot, ok := r.addPlayer()
	if !ok {
		return NoPlayer, ErrRoomFull
	}
	return slot, nil
}

// UpdateMove 覆盖玩家的待处理移动（同一 Tick 内后写覆盖先写）
func (m *RoomManager) UpdateMove(key string, slot int, mv game.Move) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[key]
	if !ok {
		return ErrRoomNotFound
	}
	if _, joined := r.pending[slot]; !joined {
		return &AppError{Kind: KindBadRequest, Message: fmt.Sprintf("player %d has not joined", slot)}
	}
	r.pending[slot] = mv
	r.metrics.IncMovesAccepted()
	return nil
}

// Broadcast 向房间内所有连接扇出消息
func (m *RoomManager) Broadcast(key string, msg []byte) error {
	if msg == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[key]
	if !ok {
		return ErrRoomNotFound
	}
	r.broadcast(msg)
	return nil
}

// BroadcastEvent 序列化后广播
func (m *RoomManager) BroadcastEvent(key string, ev any) error {
	return m.Broadcast(key, encodeEvent(ev))
}

// Chat 以 from 的身份广播聊天文本
func (m *RoomManager) Chat(key, from, content string) error {
	msg := encodeEvent(ChatEvent{Type: EventChat, From: from, Content: content})
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[key]
	if !ok {
		return ErrRoomNotFound
	}
	r.broadcast(msg)
	r.metrics.IncChatMessages()
	return nil
}

// PlayersState 读取当前模拟快照
func (m *RoomManager) PlayersState(key string) (game.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[key]
	if !ok {
		return game.Snapshot{}, ErrRoomNotFound
	}
	return r.sim.Snapshot(), nil
}

// Metrics 房间运行指标
func (m *RoomManager) Metrics(key string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[key]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r.metrics.Snapshot(), nil
}

// StartGame 确保房间的 Tick 循环在运行；重复调用不会启动第二个循环
// started 为 true 表示本次调用真正启动了循环
func (m *RoomManager) StartGame(key string) (started bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[key]
	if !ok {
		return false, ErrRoomNotFound
	}
	if r.cancelTick != nil {
		return false, nil
	}
	m.startTicker(r)
	Log.Infow("game started", "room", key, "players", r.sim.Players())
	Log.Debugf("room %s initial state:\n%s", key, r.sim)
	return true, nil
}

// Shutdown 停止所有房间的 Tick 循环（进程退出时调用）
func (m *RoomManager) Shutdown() {
	m.cancel()
}
