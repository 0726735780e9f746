package planner

import (
	"errors"
	"math"

	"github.com/voltroute/voltroute/internal/models"
)

// ErrEmptyRoute 路线坐标不足，无法生成移动轨迹
var ErrEmptyRoute = errors.New("route requires at least 2 coordinates")

// Plan 将路线几何和预计时长离散化为按秒排列的移动点序列
// 目标点数 = max(ceil(totalDurationSec), len(coords))，保证每个路线顶点
// 和每一秒行程都至少有一个点
//
// 采用参数化重采样：按输出进度线性映射到顶点序列上，在相邻顶点之间做
// 线性插值。不按弧长校正顶点间距的不均匀，这是刻意保留的行为。
// 纯函数，无副作用。
func Plan(coords []models.Coordinate, totalDurationSec float64) ([]models.Coordinate, error) {
	if len(coords) < 2 {
		return nil, ErrEmptyRoute
	}

	target := int(math.Ceil(totalDurationSec))
	if target < len(coords) {
		target = len(coords)
	}

	points := make([]models.Coordinate, target)
	for i := 0; i < target; i++ {
		var progress float64
		if target > 1 {
			progress = float64(i) / float64(target-1)
		}

		// 映射到顶点序列上的小数位置
		pos := progress * float64(len(coords)-1)
		idx := int(math.Floor(pos))
		if idx >= len(coords)-1 {
			points[i] = coords[len(coords)-1]
			continue
		}

		frac := pos - float64(idx)
		a, b := coords[idx], coords[idx+1]
		points[i] = models.Coordinate{
			Lon: a.Lon + (b.Lon-a.Lon)*frac,
			Lat: a.Lat + (b.Lat-a.Lat)*frac,
		}
	}

	return points, nil
}
