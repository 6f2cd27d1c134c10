package solver

import (
	"context"
	"math"
	"math/rand"
	"sort"
)

// AnnealConfig 模拟退火精化阶段的参数，形状借鉴
// scheduler/optimizer.OptimizationConfig，但状态空间换成了本包的切片
// 分配矩阵。
type AnnealConfig struct {
	MaxIterations    int
	InitialTemp      float64
	CoolingRate      float64
	PlateauThreshold int
}

// DefaultAnnealConfig 返回默认退火参数
func DefaultAnnealConfig() AnnealConfig {
	return AnnealConfig{
		MaxIterations:    2000,
		InitialTemp:      50.0,
		CoolingRate:      0.98,
		PlateauThreshold: 200,
	}
}

// refine 在 greedy 给出的可行解基础上做局部搜索，试图降低目标函数。
// seed 固定传入而非取自系统时钟：workers=1 时整条流水线必须是确定性的
// （见规格 4.8 的 Solver parameters）。
func refine(ctx context.Context, w *world, initial *assignment, cfg AnnealConfig, seed int64) *assignment {
	rng := rand.New(rand.NewSource(seed))

	current := initial
	currentScore := objective(w, current)
	best := current
	bestScore := currentScore

	temperature := cfg.InitialTemp
	noImprovement := 0

	for i := 0; i < cfg.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return best
		default:
		}

		neighbor := generateNeighbor(w, current, rng)
		if neighbor == nil {
			noImprovement++
		} else {
			score := objective(w, neighbor)

			accept := false
			if score < currentScore {
				accept = true
			} else {
				delta := score - currentScore
				if rng.Float64() < boltzmann(delta, temperature) {
					accept = true
				}
			}

			if accept {
				current = neighbor
				currentScore = score
				if score < bestScore {
					best = current
					bestScore = score
					noImprovement = 0
				} else {
					noImprovement++
				}
			} else {
				noImprovement++
			}
		}

		if noImprovement >= cfg.PlateauThreshold {
			break
		}
		temperature *= cfg.CoolingRate
	}

	return best
}

func boltzmann(delta, temperature float64) float64 {
	if temperature <= 0 {
		return 0
	}
	return math.Exp(-delta / temperature)
}

// generateNeighbor 生成一个邻域解：随机选一个切片，尝试用一名当前未分配
// 但 allowed 的候选员工替换一名已分配员工，或者在未满编的切片上追加一人。
// 所有移动都要维持不重叠、经验与 demand 帽等硬约束，否则返回 nil（调用方
// 视为本次迭代无改进）。
func generateNeighbor(w *world, cur *assignment, rng *rand.Rand) *assignment {
	if len(w.slices) == 0 {
		return nil
	}
	slIdx := rng.Intn(len(w.slices))
	sl := w.slices[slIdx]
	sh := w.shifts[sl.shiftIdx]

	occ := rebuildOccupancy(w, cur)

	assigned := cur.x[slIdx]
	if len(assigned) < sh.Demand {
		for ei := range w.employees {
			if assigned[ei] || !w.allowed[ei][slIdx] {
				continue
			}
			if occ.overlaps(ei, sh.Date, sl.start, sl.end) {
				continue
			}
			if sh.NeedsExperienced && !hasExperienced(w, assigned) && !w.employees[ei].Experienced {
				continue
			}
			next := cur.clone()
			next.x[slIdx][ei] = true
			return next
		}
	}

	for _, ei := range sortedKeys(assigned) {
		for cand := range w.employees {
			if cand == ei || assigned[cand] || !w.allowed[cand][slIdx] {
				continue
			}
			if occ.overlaps(cand, sh.Date, sl.start, sl.end) {
				continue
			}
			trial := map[int]bool{}
			for e := range assigned {
				trial[e] = true
			}
			delete(trial, ei)
			trial[cand] = true
			if sh.NeedsExperienced && !hasExperiencedSet(w, trial) {
				continue
			}
			next := cur.clone()
			next.x[slIdx] = trial
			return next
		}
	}

	return nil
}

// sortedKeys 返回一个 int 集合的升序切片，避免 map 迭代顺序泄漏到
// 邻域生成的决策顺序中（否则 workers=1 也无法保证确定性输出）。
func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func hasExperienced(w *world, set map[int]bool) bool {
	return hasExperiencedSet(w, set)
}

func hasExperiencedSet(w *world, set map[int]bool) bool {
	for ei := range set {
		if w.employees[ei].Experienced {
			return true
		}
	}
	return false
}

// rebuildOccupancy 从一个解重建占用表，供邻域生成期间做不重叠检查。
func rebuildOccupancy(w *world, asg *assignment) *occupancy {
	occ := newOccupancy(w)
	for slIdx, set := range asg.x {
		sl := w.slices[slIdx]
		sh := w.shifts[sl.shiftIdx]
		for ei := range set {
			occ.occupy(ei, sh.Date, sl.start, sl.end)
		}
	}
	return occ
}
