package solver

import (
	"context"
	"time"

	"github.com/rotaforge/rotaforge/pkg/logger"
)

// Config 控制一次求解调用的资源预算，对应规格 4.8 节的 Solver parameters。
type Config struct {
	TimeLimit time.Duration // 默认 10s
	Workers   int           // 默认 8
	Anneal    AnnealConfig
}

// DefaultConfig 返回默认求解配置
func DefaultConfig() Config {
	return Config{
		TimeLimit: 10 * time.Second,
		Workers:   8,
		Anneal:    DefaultAnnealConfig(),
	}
}

// Solve 是求解器的唯一入口：贪心构造可行解，再用确定性种子的局部搜索
// 依次运行多个 worker，取目标值最低者。workers=1 时整个流水线（含
// 切片、allowed 矩阵、贪心排序与退火种子）完全由输入决定，产出可复现；
// workers>1 时各 worker 用不同的固定种子(0..workers-1)，目标值相同但
// 平局时的具体分配可能不同（规格允许）。
//
// 超时（ctx 的 TimeLimit 派生截止时间到达）不是错误：Solve 自己记录
// SolveTimedOut 日志并返回当前最优 incumbent，不向调用方返回错误或超时标记。
func Solve(ctx context.Context, in Input, cfg Config) Output {
	if cfg.TimeLimit <= 0 {
		cfg = DefaultConfig()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	solveCtx, cancel := context.WithTimeout(ctx, cfg.TimeLimit)
	defer cancel()

	w := buildWorld(in)
	greedy := buildGreedy(w)

	log := logger.NewSolveLogger()
	start := time.Now()
	log.StartSolve(in.DemandID, len(w.employees), len(w.slices))

	best := greedy
	bestScore := objective(w, greedy)

	for worker := 0; worker < workers; worker++ {
		select {
		case <-solveCtx.Done():
			log.SolveTimedOut(in.DemandID, time.Since(start))
			return compose(w, best)
		default:
		}

		candidate := refine(solveCtx, w, greedy.clone(), cfg.Anneal, int64(worker))
		score := objective(w, candidate)
		if score < bestScore {
			best = candidate
			bestScore = score
		}
	}

	log.SolveComplete(in.DemandID, time.Since(start), bestScore)
	return compose(w, best)
}
