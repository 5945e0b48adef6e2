package game

// Vec 竞技场内的连续坐标（左上角为原点，单位为格）
type Vec struct {
	X float64
	Y float64
}

// Cell 竞技场内的整数格坐标
type Cell struct {
	X int
	Y int
}

// Vec 返回格子左上角的连续坐标
func (c Cell) Vec() Vec { return Vec{X: float64(c.X), Y: float64(c.Y)} }

// box 轴对齐包围盒，边界相接不算重叠
type box struct {
	x, y, w, h float64
}

func unitBox(p Vec) box { return box{x: p.X, y: p.Y, w: Size, h: Size} }

func (b box) overlaps(o box) bool {
	return b.x < o.x+o.w && b.x+b.w > o.x &&
		b.y < o.y+o.h && b.y+b.h > o.y
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
