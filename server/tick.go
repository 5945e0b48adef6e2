package server

import (
	"context"
	"time"

	"ctfarena/game"
)

// startTicker 启动房间的 Tick 循环，调用方需持有写锁
func (m *RoomManager) startTicker(r *Room) {
	ctx, cancel := context.WithCancel(m.ctx)
	r.cancelTick = cancel
	go m.runTicker(ctx, r)
}

// runTicker 按固定周期推进模拟，直到房间被删除或进程退出
func (m *RoomManager) runTicker(ctx context.Context, r *Room) {
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			Log.Debugw("tick loop stopped", "room", r.Key)
			return
		case <-ticker.C:
			if !m.tick(r) {
				return
			}
		}
	}
}

// tick 推进一次模拟并广播快照
// 读锁下拷贝名单与输入，锁外组装移动向量，写锁下只做 Step + 读取快照，解锁后再广播。
// 拷贝与 Step 之间到达的输入顺延到下一个 Tick 生效
func (m *RoomManager) tick(r *Room) bool {
	start := time.Now()

	m.mu.RLock()
	if m.rooms[r.Key] != r {
		m.mu.RUnlock()
		return false
	}
	players := r.sim.Players()
	roster := append([]int(nil), r.roster...)
	pending := make(map[int]game.Move, len(r.pending))
	for slot, mv := range r.pending {
		pending[slot] = mv
	}
	m.mu.RUnlock()

	moves := make([]game.Move, players)
	for _, slot := range roster {
		if slot >= 0 && slot < players {
			moves[slot] = pending[slot]
		}
	}

	m.mu.Lock()
	if m.rooms[r.Key] != r {
		m.mu.Unlock()
		return false
	}
	r.sim.Step(moves)
	snap := r.sim.Snapshot()
	m.mu.Unlock()

	ev := PositionsEvent{Type: EventPositions, Snapshot: snap}
	if err := m.BroadcastEvent(r.Key, ev); err != nil {
		return false
	}
	r.metrics.AddTick(time.Since(start))
	return true
}
