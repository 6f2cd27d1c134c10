// RotaForge 排班核心
// 组合根：加载配置、建立数据库连接、装配仓储与服务层。
//
// HTTP 传输、JWT/鉴权与租户管理由外部协作方负责（见 SPEC_FULL.md 第 1 节
// 的 out-of-scope 列表），这里不实现路由或中间件——只把核心的各个端口
// （*Service 的方法、notify.Mailer、actorctx.Actor）装配好，交给外层
// 传输层去调用。
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotaforge/rotaforge/internal/config"
	"github.com/rotaforge/rotaforge/internal/database"
	"github.com/rotaforge/rotaforge/internal/notify"
	"github.com/rotaforge/rotaforge/internal/repository"
	"github.com/rotaforge/rotaforge/internal/service"
	"github.com/rotaforge/rotaforge/pkg/logger"
	"github.com/rotaforge/rotaforge/pkg/solver"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Core 是装配完成的核心服务集合，供外层传输层（HTTP/gRPC/CLI）调用。
type Core struct {
	Demand   *service.DemandService
	Schedule *service.ScheduleService
	Transfer *service.TransferService
	Rules    *service.RuleService
}

// Build 装配全部仓储与服务，构成核心对外暴露的端口集合。
func Build(db *database.DB, cfg *config.Config, mailer notify.Mailer) *Core {
	demands := repository.NewDemandRepository(db)
	dayIndex := repository.NewDayIndexRepository(db)
	defaults := repository.NewDefaultDemandRepository(db)
	rules := repository.NewEventRuleRepository(db)
	specialDays := repository.NewSpecialDayRepository(db)
	availability := repository.NewAvailabilityRepository(db)
	shifts := repository.NewScheduleShiftRepository(db)
	transfers := repository.NewTransferRepository(db)

	solverCfg := solver.Config{
		TimeLimit: cfg.Solver.TimeLimit,
		Workers:   cfg.Solver.Workers,
		Anneal: solver.AnnealConfig{
			MaxIterations:    cfg.Solver.MaxIterations,
			InitialTemp:      cfg.Solver.InitialTemp,
			CoolingRate:      cfg.Solver.CoolingRate,
			PlateauThreshold: solver.DefaultAnnealConfig().PlateauThreshold,
		},
	}

	return &Core{
		Demand:   service.NewDemandService(demands, dayIndex, rules, specialDays, defaults),
		Schedule: service.NewScheduleService(demands, shifts, availability, rules, specialDays, solverCfg),
		Transfer: service.NewTransferService(transfers, shifts, mailer),
		Rules:    service.NewRuleService(rules, specialDays),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("env", cfg.App.Env).
		Msg("rotaforge 排班核心启动")

	db, err := database.New(&cfg.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("数据库连接失败")
	}
	defer db.Close()

	var mailer notify.Mailer = notify.NoopMailer{}
	if cfg.IsProduction() {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: 587,
			From: os.Getenv("SMTP_FROM"),
		})
	}

	core := Build(db, cfg, mailer)
	logger.Info().
		Bool("demand_ready", core.Demand != nil).
		Bool("schedule_ready", core.Schedule != nil).
		Bool("transfer_ready", core.Transfer != nil).
		Bool("rules_ready", core.Rules != nil).
		Msg("核心服务装配完成，等待传输层接入")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("收到关闭信号，退出")
}
