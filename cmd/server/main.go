package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	aviator "github.com/Ashenafi-pixel/aviator-crash"
	"github.com/Ashenafi-pixel/aviator-crash/config"
	"github.com/Ashenafi-pixel/aviator-crash/games/crash"
	"github.com/Ashenafi-pixel/aviator-crash/round"
	"github.com/Ashenafi-pixel/aviator-crash/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env from cwd or the project root; missing files are fine.
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	_ = godotenv.Load("../.env.local")

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	profile, err := crash.LoadProfile(cfg.CrashProfile)
	if err != nil {
		log.Fatal("load crash profile", zap.Error(err))
	}
	if cfg.HouseEdge != 0 {
		profile.HouseEdge = cfg.HouseEdge
	}
	if cfg.GrowthK != 0 {
		profile.GrowthK = cfg.GrowthK
	}
	if err := profile.Validate(); err != nil {
		log.Fatal("crash profile", zap.Error(err))
	}

	history, closeHistory, err := openHistory(cfg)
	if err != nil {
		log.Fatal("open history", zap.String("driver", cfg.HistoryDriver), zap.Error(err))
	}
	defer closeHistory()

	log.Info("crash table",
		zap.Float64("house_edge", profile.HouseEdge),
		zap.Float64("growth_k", profile.GrowthK),
		zap.String("history", cfg.HistoryDriver),
	)
	sessions := round.NewSessions(history, cfg.MaxSessions, profile.Options()...)
	srv := server.New(sessions, log, cfg.InitialBalance, cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}

func openHistory(cfg *config.Config) (round.History, func(), error) {
	if cfg.HistoryDriver == "file" {
		return round.NewResultsStore(cfg.DataDir), func() {}, nil
	}
	dsn := cfg.DatabaseURL
	if cfg.HistoryDriver == aviator.DriverSQLite {
		dsn = cfg.SQLitePath
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, nil, err
		}
	}
	db, err := aviator.OpenDB(cfg.HistoryDriver, dsn)
	if err != nil {
		return nil, nil, err
	}
	h := round.NewSQLHistory(db, cfg.HistoryDriver)
	if err := h.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}
	return h, func() { db.Close() }, nil
}
