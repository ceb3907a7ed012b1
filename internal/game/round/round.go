package round

import (
	"math"
	"math/rand/v2"
	"slices"
)

// MaxRounds 每局回合数
const MaxRounds = 6

// Config 单回合配置（WineCount 以 5 款酒的房间为基准）
type Config struct {
	RoundNum  int
	WineCount int
	Duration  int // 秒
}

// Configs 回合配置表
var Configs = [MaxRounds]Config{
	{RoundNum: 1, WineCount: 2, Duration: 30},
	{RoundNum: 2, WineCount: 2, Duration: 28},
	{RoundNum: 3, WineCount: 3, Duration: 27},
	{RoundNum: 4, WineCount: 3, Duration: 25},
	{RoundNum: 5, WineCount: 4, Duration: 22},
	{RoundNum: 6, WineCount: 5, Duration: 20},
}

// growth 每回合在 [2, total] 区间内的展示比例
var growth = [MaxRounds]float64{0, 0, 1.0 / 3, 1.0 / 3, 2.0 / 3, 1}

// fiveWineRounds 5 款酒房间的固定选酒表
var fiveWineRounds = [MaxRounds][]int{
	{0, 1},
	{0, 2},
	{1, 2, 3},
	{0, 3, 4},
	{1, 2, 3, 4},
	{0, 1, 2, 3, 4},
}

// normalize 超出 1-6 的回合号按第 1 回合处理
func normalize(roundNum int) int {
	if roundNum < 1 || roundNum > MaxRounds {
		return 1
	}
	return roundNum
}

// ConfigFor 返回回合配置
func ConfigFor(roundNum int) Config {
	return Configs[normalize(roundNum)-1]
}

// Duration 返回回合时长（秒）
func Duration(roundNum int) int {
	return ConfigFor(roundNum).Duration
}

// WineCount 计算该回合展示的酒款数量
func WineCount(total, roundNum int) int {
	if total <= 0 {
		return 0
	}
	if total <= 2 {
		return total
	}
	r := normalize(roundNum)
	n := 2 + int(math.Round(float64(total-2)*growth[r-1]))
	return min(max(n, 2), total)
}

// SelectWines 返回该回合展示的酒款下标（升序）
//
// 5 款酒的房间使用固定选酒表；其他数量下，相同的 (total, roundNum)
// 总是得到相同结果：下标取自以二者为种子的 PCG 排列。最后一回合展示全部酒款。
func SelectWines(total, roundNum int) []int {
	count := WineCount(total, roundNum)
	if count == 0 {
		return []int{}
	}
	r := normalize(roundNum)
	if total == len(fiveWineRounds[MaxRounds-1]) {
		return slices.Clone(fiveWineRounds[r-1])
	}
	if count == total {
		indices := make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	rng := rand.New(rand.NewPCG(uint64(total), uint64(r)))
	indices := rng.Perm(total)[:count]
	slices.Sort(indices)
	return indices
}
