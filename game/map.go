package game

import (
	"errors"
	"fmt"
)

const (
	// MapWidth/MapHeight 两种人数共用同一张 28x14 地图
	MapWidth  = 28
	MapHeight = 14

	// Teams 固定两队：玩家 i 属于 i % 2 队
	Teams = 2
)

// ErrInvalidPlayerCount 只支持 2 人或 4 人对局
var ErrInvalidPlayerCount = errors.New("game: player count must be 2 or 4")

// Map 一局比赛的静态布局，构造后只读
type Map struct {
	Width       int
	Height      int
	PlayerSpawn []Cell
	FlagSpawn   [Teams]Cell
	Walls       []Cell
}

// 障碍物关于竞技场中心点对称：(x, y) <-> (27-x, 13-y)
var defaultWalls = []Cell{
	{4, 4}, {4, 5}, {4, 6},
	{23, 9}, {23, 8}, {23, 7},
	{9, 9}, {9, 10}, {10, 10},
	{18, 4}, {18, 3}, {17, 3},
	{13, 6}, {13, 7}, {14, 6}, {14, 7},
}

// ValidPlayerCount 判断人数是否受支持
func ValidPlayerCount(n int) bool { return n == 2 || n == 4 }

// NewMap 按人数生成地图
func NewMap(players int) (*Map, error) {
	if !ValidPlayerCount(players) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPlayerCount, players)
	}
	m := &Map{
		Width:  MapWidth,
		Height: MapHeight,
		FlagSpawn: [Teams]Cell{
			{X: 1, Y: MapHeight/2 - 1},
			{X: MapWidth - 2, Y: MapHeight / 2},
		},
		Walls: append([]Cell(nil), defaultWalls...),
	}
	switch players {
	case 2:
		m.PlayerSpawn = []Cell{{0, 0}, {MapWidth - 1, 0}}
	case 4:
		m.PlayerSpawn = []Cell{
			{0, 0}, {MapWidth - 1, 0},
			{0, MapHeight - 1}, {MapWidth - 1, MapHeight - 1},
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Players 地图支持的玩家数
func (m *Map) Players() int { return len(m.PlayerSpawn) }

// Validate 校验地图不变量：出生点在界内、互不重合、不在墙上，且位于本队半场
func (m *Map) Validate() error {
	if m.Width%2 != 0 {
		return fmt.Errorf("game: map width %d must be even", m.Width)
	}
	if !ValidPlayerCount(len(m.PlayerSpawn)) {
		return fmt.Errorf("%w: map has %d spawns", ErrInvalidPlayerCount, len(m.PlayerSpawn))
	}
	walls := make(map[Cell]struct{}, len(m.Walls))
	for _, w := range m.Walls {
		if !m.inBounds(w) {
			return fmt.Errorf("game: wall %v out of bounds", w)
		}
		walls[w] = struct{}{}
	}
	seen := make(map[Cell]int, len(m.PlayerSpawn))
	for i, s := range m.PlayerSpawn {
		if !m.inBounds(s) {
			return fmt.Errorf("game: spawn %d %v out of bounds", i, s)
		}
		if j, dup := seen[s]; dup {
			return fmt.Errorf("game: spawns %d and %d share cell %v", j, i, s)
		}
		if _, onWall := walls[s]; onWall {
			return fmt.Errorf("game: spawn %d %v is a wall", i, s)
		}
		if !onHomeHalf(TeamOf(i), s.Vec(), float64(m.Width)) {
			return fmt.Errorf("game: spawn %d %v is outside team %d half", i, s, TeamOf(i))
		}
		seen[s] = i
	}
	for t, f := range m.FlagSpawn {
		if !m.inBounds(f) {
			return fmt.Errorf("game: flag %d %v out of bounds", t, f)
		}
		if _, onWall := walls[f]; onWall {
			return fmt.Errorf("game: flag %d %v is a wall", t, f)
		}
	}
	return nil
}

func (m *Map) inBounds(c Cell) bool {
	return c.X >= 0 && c.X < m.Width && c.Y >= 0 && c.Y < m.Height
}

// TeamOf 玩家所属队伍
func TeamOf(player int) int { return player % Teams }
