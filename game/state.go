package game

import "math"

const (
	// Speed 每个 Tick 的移动距离（格）
	Speed = 0.25
	// Size 玩家包围盒边长
	Size = 1.0

	noCaptor = -1
)

// State 一局比赛的权威状态，仅由 Step 推进
// 不是并发安全的：调用方（房间注册表）负责加锁
type State struct {
	width  float64
	height float64
	walls  []Cell
	flags  [Teams]Cell

	positions []Vec
	spawn     []Vec
	scores    [Teams]int
	captors   [Teams]int // 持有该队旗帜的玩家下标，noCaptor 表示旗帜在原位
	tick      uint64
}

// Snapshot 广播给客户端的只读状态副本
type Snapshot struct {
	Tick        uint64       `json:"tick"`
	Players     [][2]float64 `json:"players"`
	FlagCaptors [Teams]*int  `json:"flag_captors"`
	Scores      [Teams]int   `json:"scores"`
}

// NewState 按人数创建新对局，玩家位于出生点
func NewState(players int) (*State, error) {
	m, err := NewMap(players)
	if err != nil {
		return nil, err
	}
	return NewStateFromMap(m), nil
}

// NewStateFromMap 基于已校验的地图创建对局
func NewStateFromMap(m *Map) *State {
	s := &State{
		width:  float64(m.Width),
		height: float64(m.Height),
		walls:  append([]Cell(nil), m.Walls...),
		flags:  m.FlagSpawn,
		spawn:  make([]Vec, len(m.PlayerSpawn)),
	}
	for i, c := range m.PlayerSpawn {
		s.spawn[i] = c.Vec()
	}
	s.Reset()
	return s
}

// Reset 所有玩家回到出生点，旗帜归位，比分清零
func (s *State) Reset() {
	s.positions = append(s.positions[:0], s.spawn...)
	s.scores = [Teams]int{}
	s.captors = [Teams]int{noCaptor, noCaptor}
	s.tick = 0
}

// Players 对局人数
func (s *State) Players() int { return len(s.positions) }

// Tick 已推进的 Tick 数
func (s *State) Tick() uint64 { return s.tick }

// Position 返回玩家当前位置
func (s *State) Position(player int) Vec { return s.positions[player] }

// Positions 返回所有玩家位置的副本
func (s *State) Positions() []Vec { return append([]Vec(nil), s.positions...) }

// Scores 两队比分
func (s *State) Scores() [Teams]int { return s.scores }

// Captor 返回持有 team 队旗帜的玩家
func (s *State) Captor(team int) (int, bool) {
	c := s.captors[team]
	return c, c != noCaptor
}

// Step 推进一个 Tick：移动与墙体碰撞 -> 玩家碰撞/领地判定 -> 夺旗 -> 得分检查
// moves 缺省的玩家视为原地不动，多余的条目忽略
func (s *State) Step(moves []Move) {
	for i := range s.positions {
		m := MoveStay
		if i < len(moves) {
			m = moves[i]
		}
		s.positions[i] = s.move(s.positions[i], m)
	}
	s.enforceTerritory()
	s.captureFlags()
	s.checkScoring()
	s.tick++
}

const maxWallPasses = 4

// move 在试探位置上做边界裁剪与墙体碰撞修正
func (s *State) move(p Vec, m Move) Vec {
	dx, dy := m.Delta()
	next := s.clampToArena(Vec{
		X: p.X + float64(dx)*Speed,
		Y: p.Y + float64(dy)*Speed,
	})
	// 推出一面墙可能顶进另一面墙，重复直到位置稳定
	for pass := 0; pass < maxWallPasses; pass++ {
		prev := next
		for _, w := range s.walls {
			next = resolveWall(next, w)
		}
		if next == prev {
			break
		}
	}
	return s.clampToArena(next)
}

func (s *State) clampToArena(p Vec) Vec {
	return Vec{
		X: clamp(p.X, 0, s.width-Size),
		Y: clamp(p.Y, 0, s.height-Size),
	}
}

// resolveWall 最小平移向量：沿重叠最小的轴把玩家推到墙的边缘（允许贴墙滑动）
func resolveWall(p Vec, w Cell) Vec {
	pb, wb := unitBox(p), unitBox(w.Vec())
	if !pb.overlaps(wb) {
		return p
	}
	pushLeft := pb.x + pb.w - wb.x
	pushRight := wb.x + wb.w - pb.x
	pushUp := pb.y + pb.h - wb.y
	pushDown := wb.y + wb.h - pb.y

	best := math.Min(math.Min(pushLeft, pushRight), math.Min(pushUp, pushDown))
	switch best {
	case pushLeft:
		p.X = wb.x - pb.w
	case pushRight:
		p.X = wb.x + wb.w
	case pushUp:
		p.Y = wb.y - pb.h
	default:
		p.Y = wb.y + wb.h
	}
	return p
}

// enforceTerritory 敌对玩家相撞时，不在本队半场的一方被送回出生点
// 先收集本 Tick 的全部碰撞，再统一结算，结果与遍历顺序无关
func (s *State) enforceTerritory() {
	reset := make([]bool, len(s.positions))
	for i := range s.positions {
		for j := i + 1; j < len(s.positions); j++ {
			if TeamOf(i) == TeamOf(j) {
				continue
			}
			if !unitBox(s.positions[i]).overlaps(unitBox(s.positions[j])) {
				continue
			}
			for _, p := range [2]int{i, j} {
				if !onHomeHalf(TeamOf(p), s.positions[p], s.width) {
					reset[p] = true
				}
			}
		}
	}
	for i, r := range reset {
		if r {
			s.positions[i] = s.spawn[i]
		}
	}
}

// captureFlags 玩家碰到未被夺走的敌方旗帜即成为持旗者；按玩家下标先到先得
func (s *State) captureFlags() {
	for i, p := range s.positions {
		pb := unitBox(p)
		for team := 0; team < Teams; team++ {
			if team == TeamOf(i) || s.captors[team] != noCaptor {
				continue
			}
			if pb.overlaps(unitBox(s.flags[team].Vec())) {
				s.captors[team] = i
			}
		}
	}
}

// checkScoring 持旗者回到本队半场时旗帜归位
// TODO: scores 目前从未增加，等玩法确认得分规则后在这里累加
func (s *State) checkScoring() {
	for team, c := range s.captors {
		if c == noCaptor {
			continue
		}
		if onHomeHalf(TeamOf(c), s.positions[c], s.width) {
			s.captors[team] = noCaptor
		}
	}
}

// Snapshot 复制当前状态，可安全交给其他 goroutine
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:    s.tick,
		Players: make([][2]float64, len(s.positions)),
		Scores:  s.scores,
	}
	for i, p := range s.positions {
		snap.Players[i] = [2]float64{p.X, p.Y}
	}
	for team, c := range s.captors {
		if c != noCaptor {
			c := c
			snap.FlagCaptors[team] = &c
		}
	}
	return snap
}

// onHomeHalf 以包围盒中心的 x 判断玩家是否在本队半场
func onHomeHalf(team int, p Vec, width float64) bool {
	center := p.X + Size/2
	if team == 0 {
		return center < width/2
	}
	return center >= width/2
}
