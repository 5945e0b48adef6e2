package server

import (
	"sync/atomic"
	"time"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount       int64 // 已推进的 Tick 次数
	TotalTickNs     int64 // Tick 累计耗时（纳秒）
	MovesAccepted   int64 // 写入 pending_moves 的移动输入数
	ChatMessages    int64 // 广播的聊天消息数（含无法解析的回退文本）
	Broadcasts      int64 // 房间广播次数
	MessagesDropped int64 // 因发送队列满被丢弃的消息数
	SendersPruned   int64 // 广播时清理掉的失效连接数
}

func (m *RoomMetrics) IncMovesAccepted() { atomic.AddInt64(&m.MovesAccepted, 1) }
func (m *RoomMetrics) IncChatMessages() { atomic.AddInt64(&m.ChatMessages, 1) }
func (m *RoomMetrics) IncBroadcasts() { atomic.AddInt64(&m.Broadcasts, 1) }
func (m *RoomMetrics) AddDropped(n int) { atomic.AddInt64(&m.MessagesDropped, int64(n)) }
func (m *RoomMetrics) AddPruned(n int) { atomic.AddInt64(&m.SendersPruned, int64(n)) }
func (m *RoomMetrics) AddTick(d time.Duration) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, d.Nanoseconds())
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":       tick,
		"moves_accepted":   atomic.LoadInt64(&m.MovesAccepted),
		"chat_messages":    atomic.LoadInt64(&m.ChatMessages),
		"broadcasts":       atomic.LoadInt64(&m.Broadcasts),
		"messages_dropped": atomic.LoadInt64(&m.MessagesDropped),
		"senders_pruned":   atomic.LoadInt64(&m.SendersPruned),
		"avg_tick_ms":      avgMs,
	}
}
