package floor

import "math"

// 8 邻域偏移
var neighbors8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// flood 从 seeds 出发做 8 连通填充，只走值等于 value 的像素。
// 使用显式栈避免大掩码上的递归深度问题，返回访问到的像素下标。
func flood(m Mask, value uint8, visited []bool, seeds []int, stack []int) ([]int, []int) {
	var points []int
	stack = stack[:0]
	for _, s := range seeds {
		if m.Pix[s] == value && !visited[s] {
			visited[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		points = append(points, i)
		x, y := i%m.Width, i/m.Width
		for _, d := range neighbors8 {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= m.Width || ny < 0 || ny >= m.Height {
				continue
			}
			ni := ny*m.Width + nx
			if m.Pix[ni] == value && !visited[ni] {
				visited[ni] = true
				stack = append(stack, ni)
			}
		}
	}
	return points, stack
}

// RemoveSmallComponents 去掉面积小于 max(1, floor(地板总数×ratio)) 的地板连通域。
// 输入不变，返回新掩码。
func RemoveSmallComponents(m Mask, ratio float64) Mask {
	out := m.Clone()
	minArea := max(1, int(math.Floor(float64(m.Count())*ratio)))

	visited := make([]bool, len(m.Pix))
	var stack []int
	seed := make([]int, 1)
	for i, v := range m.Pix {
		if v != Foreground || visited[i] {
			continue
		}
		seed[0] = i
		var points []int
		points, stack = flood(m, Foreground, visited, seed, stack)
		if len(points) < minArea {
			for _, p := range points {
				out.Pix[p] = Background
			}
		}
	}
	return out
}

// FillHoles 填充被地板完全包围、面积不超过 floor(像素总数×maxHoleRatio) 的背景区域。
// 与图像边界连通的背景视为外部，永不填充。
func FillHoles(m Mask, maxHoleRatio float64) Mask {
	out := m.Clone()
	maxHoleArea := int(math.Floor(float64(len(m.Pix)) * maxHoleRatio))
	visited := make([]bool, len(m.Pix))

	border := make([]int, 0, 2*(m.Width+m.Height))
	for x := 0; x < m.Width; x++ {
		border = append(border, x, (m.Height-1)*m.Width+x)
	}
	for y := 0; y < m.Height; y++ {
		border = append(border, y*m.Width, y*m.Width+m.Width-1)
	}
	_, stack := flood(m, Background, visited, border, nil)

	seed := make([]int, 1)
	for i, v := range m.Pix {
		if v != Background || visited[i] {
			continue
		}
		seed[0] = i
		var hole []int
		hole, stack = flood(m, Background, visited, seed, stack)
		if len(hole) <= maxHoleArea {
			for _, p := range hole {
				out.Pix[p] = Foreground
			}
		}
	}
	return out
}
