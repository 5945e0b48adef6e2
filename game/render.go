package game

import (
	"fmt"
	"math"
	"strings"
)

// String 以 ASCII 网格输出当前局面，便于调试日志
// '#' 墙体，'b'/'r' 蓝/红队旗帜原位，数字为玩家下标
func (s *State) String() string {
	w, h := int(s.width), int(s.height)
	grid := make([][]byte, h)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(" ", w))
	}
	for _, c := range s.walls {
		grid[c.Y][c.X] = '#'
	}
	for team, c := range s.flags {
		if s.captors[team] == noCaptor {
			grid[c.Y][c.X] = "br"[team]
		}
	}
	for i, p := range s.positions {
		x := int(math.Floor(p.X))
		y := int(math.Floor(p.Y))
		grid[y][x] = byte('0' + i%10)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Blue %2d %s Red %2d\n", s.scores[0], strings.Repeat("-", w-14), s.scores[1])
	b.WriteString("┌" + strings.Repeat("─", w) + "┐\n")
	for _, row := range grid {
		b.WriteString("│")
		b.Write(row)
		b.WriteString("│\n")
	}
	b.WriteString("└" + strings.Repeat("─", w) + "┘")
	return b.String()
}
