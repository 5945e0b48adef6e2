package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"ctfarena/game"
)

// Sender 单个连接的出站队列（由连接协程负责写出到 WS）
type Sender struct {
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newSender(buffer int) *Sender {
	return &Sender{
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// Enqueue 非阻塞压入消息，队列满时丢弃（不阻塞 Tick）
// alive 为 false 表示连接已失效，调用方应把它移出房间；queued 为 false 表示消息被丢弃
func (s *Sender) Enqueue(b []byte) (alive, queued bool) {
	select {
	case <-s.done:
		return false, false
	default:
	}
	select {
	case s.send <- b:
		return true, true
	default:
		return true, false
	}
}

// C 待写出的消息
func (s *Sender) C() <-chan []byte { return s.send }

// Done 连接结束或房间被删除时关闭
func (s *Sender) Done() <-chan struct{} { return s.done }

// Close 标记连接失效，可重复调用
func (s *Sender) Close() { s.once.Do(func() { close(s.done) }) }

// Room 一局比赛：玩家名单、待处理输入、模拟状态与广播通道
// 所有字段由 RoomManager.mu 保护
type Room struct {
	Key       string
	CreatedAt time.Time

	roster  []int
	pending map[int]game.Move
	sim     *game.State
	senders []*Sender

	cancelTick context.CancelFunc // 非 nil 表示 Tick 循环已启动
	metrics    *RoomMetrics
}

// RoomInfo 房间概览（只读副本）
type RoomInfo struct {
	RoomID    string    `json:"room_id"`
	Players   int       `json:"players"`
	Roster    []int     `json:"roster"`
	Connected int       `json:"connected"`
	Started   bool      `json:"started"`
	Tick      uint64    `json:"tick"`
	CreatedAt time.Time `json:"created_at"`
}

func newRoom(key string, sim *game.State) *Room {
	return &Room{
		Key:       key,
		CreatedAt: time.Now(),
		pending:   make(map[int]game.Move),
		sim:       sim,
		metrics:   &RoomMetrics{},
	}
}

func (r *Room) info() RoomInfo {
	return RoomInfo{
		RoomID:    r.Key,
		Players:   r.sim.Players(),
		Roster:    append([]int{}, r.roster...),
		Connected: len(r.senders),
		Started:   r.cancelTick != nil,
		Tick:      r.sim.Tick(),
		CreatedAt: r.CreatedAt,
	}
}

// nextSlot 最小的未被占用的非负整数；超出对局人数时房间已满
func (r *Room) nextSlot() (int, bool) {
	taken := make(map[int]bool, len(r.roster))
	for _, id := range r.roster {
		taken[id] = true
	}
	slot := 0
	for taken[slot] {
		slot++
	}
	return slot, slot < r.sim.Players()
}

func (r *Room) addPlayer() (int, bool) {
	slot, ok := r.nextSlot()
	if !ok {
		return 0, false
	}
	r.roster = append(r.roster, slot)
	sort.Ints(r.roster)
	r.pending[slot] = game.MoveStay
	return slot, true
}

// broadcast 扇出到所有已注册连接，并顺带清理失效连接
func (r *Room) broadcast(msg []byte) {
	live := r.senders[:0]
	var dropped int
	for _, s := range r.senders {
		alive, queued := s.Enqueue(msg)
		if !alive {
			continue
		}
		if !queued {
			dropped++
		}
		live = append(live, s)
	}
	pruned := len(r.senders) - len(live)
	for i := len(live); i < len(r.senders); i++ {
		r.senders[i] = nil
	}
	r.senders = live

	r.metrics.IncBroadcasts()
	r.metrics.AddDropped(dropped)
	r.metrics.AddPruned(pruned)
}

// close 停止 Tick 循环并通知所有连接房间已关闭
func (r *Room) close() {
	if r.cancelTick != nil {
		r.cancelTick()
	}
	for _, s := range r.senders {
		s.Close()
	}
	r.senders = nil
}
