package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"backend-zodiack/internal/config"
	"backend-zodiack/internal/db"
	"backend-zodiack/internal/notify"
	"backend-zodiack/internal/server"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig       func() config.Config
	connectPostgres  func(config.Config) (*pgxpool.Pool, error)
	connectRedis     func(config.Config) *redis.Client
	connectPublisher func(string) (*notify.AMQPPublisher, error)
	notify           func(chan<- os.Signal, ...os.Signal)
	run              func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, *notify.AMQPPublisher, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:       config.Load,
		connectPostgres:  db.ConnectPostgres,
		connectRedis:     db.ConnectRedis,
		connectPublisher: notify.ConnectPublisher,
		notify:           signal.Notify,
		run:              Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		log.Printf("postgres connection failed: %v", err)
	}

	rdb := deps.connectRedis(cfg)

	push, err := deps.connectPublisher(cfg.AMQPURL)
	if err != nil {
		log.Printf("amqp connection failed, push delivery disabled: %v", err)
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, pg, rdb, push, signals, nil); err != nil {
		log.Printf("server exited with error: %v", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and background sweeps, then waits for
// termination signals.
func Run(ctx context.Context, cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, push *notify.AMQPPublisher, signals <-chan os.Signal, listen ListenFunc) error {
	// a typed nil must not reach the interface field
	var pub notify.PushPublisher
	if push != nil {
		pub = push
	}
	srv := server.NewServer(cfg, pg, rdb, pub)

	sweepCtx, stopSweeps := context.WithCancel(ctx)
	defer stopSweeps()
	if pg != nil {
		go srv.Scheduler.Run(sweepCtx)
	}

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	stopSweeps()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if pg != nil {
		pg.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if push != nil {
		_ = push.Close()
	}
	return nil
}
