package game

// Move 玩家在一个 Tick 内的离散方向意图（8 个方向 + 原地不动）
type Move int

const (
	MoveStay Move = iota
	MoveUp
	MoveUpRight
	MoveRight
	MoveDownRight
	MoveDown
	MoveDownLeft
	MoveLeft
	MoveUpLeft
)

var moveDeltas = [...][2]int{
	MoveStay:      {0, 0},
	MoveUp:        {0, -1},
	MoveUpRight:   {1, -1},
	MoveRight:     {1, 0},
	MoveDownRight: {1, 1},
	MoveDown:      {0, 1},
	MoveDownLeft:  {-1, 1},
	MoveLeft:      {-1, 0},
	MoveUpLeft:    {-1, -1},
}

var moveNames = [...]string{
	MoveStay:      "stay",
	MoveUp:        "up",
	MoveUpRight:   "up_right",
	MoveRight:     "right",
	MoveDownRight: "down_right",
	MoveDown:      "down",
	MoveDownLeft:  "down_left",
	MoveLeft:      "left",
	MoveUpLeft:    "up_left",
}

// NewMove 将客户端上报的 (dx, dy) 归一化到 9 个方向之一
// 各分量先取符号，因此 (5, -3) 等价于 (1, -1)
func NewMove(dx, dy int) Move {
	sx, sy := sign(dx), sign(dy)
	for m, d := range moveDeltas {
		if d[0] == sx && d[1] == sy {
			return Move(m)
		}
	}
	return MoveStay
}

// Delta 返回方向对应的单位向量，y 轴向下为正
func (m Move) Delta() (dx, dy int) {
	if !m.valid() {
		return 0, 0
	}
	d := moveDeltas[m]
	return d[0], d[1]
}

func (m Move) String() string {
	if !m.valid() {
		return "stay"
	}
	return moveNames[m]
}

func (m Move) valid() bool {
	return m >= MoveStay && int(m) < len(moveDeltas)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
