package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	. "ladder/internal/common"
	"ladder/internal/config"
	"ladder/internal/engine"
	"ladder/internal/feed"
	"ladder/internal/logging"
	"ladder/internal/metrics"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "bookd",
		Usage: "run in-memory order books under synthetic order flow",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"LADDER_CONFIG"}},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before the config"},
			&cli.StringFlag{Name: "log-level", Usage: "override logging.level"},
			&cli.IntFlag{Name: "orders", Value: -1, Usage: "override feed.orders"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("bookd failed")
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return err
	}
	if v := c.String("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := c.Int("orders"); v >= 0 {
		cfg.Feed.Orders = v
	}
	logger := logging.Setup(cfg)

	ctx, stop := signal.NotifyContext(
		c.Context,
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	if cfg.Metrics.Enabled {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.Handler(metrics.Init(logger))}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics")
	}

	eng := engine.New(ctx, cfg.Book.Tickers...)
	defer func() {
		if err := eng.Shutdown(); err != nil {
			log.Error().Err(err).Msg("engine shutdown failed")
		}
	}()

	// One feed per book, sharing the id generator. Feeds are drained before the
	// engine shuts down.
	var feeds sync.WaitGroup
	defer feeds.Wait()
	ids := &feed.IDs{}
	fed := eng.Tickers()
	if cfg.Feed.Workers == 0 {
		log.Info().Msg("feed disabled")
		fed = nil
	}
	for _, ticker := range fed {
		book, err := eng.Book(ticker)
		if err != nil {
			return err
		}
		f := feed.New(book, feed.Config{
			Workers:  cfg.Feed.Workers,
			Orders:   cfg.Feed.Orders,
			MinPrice: cfg.Feed.MinPrice,
			MaxPrice: cfg.Feed.MaxPrice,
			MaxSize:  cfg.Feed.MaxSize,
			Seed:     cfg.Feed.Seed,
		}, ids)
		feeds.Add(1)
		go func() {
			defer feeds.Done()
			if err := f.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Str("ticker", ticker).Msg("feed failed")
			}
		}()
	}

	reportTicker := time.NewTicker(cfg.Feed.ReportInterval)
	defer reportTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return nil
		case <-reportTicker.C:
			report(eng)
		}
	}
}

// report logs the top of every book.
func report(eng *engine.Engine) {
	for _, name := range eng.Tickers() {
		book, err := eng.Book(name)
		if err != nil {
			continue
		}
		event := log.Info().Str("ticker", name)
		for _, side := range Sides {
			event = event.Int(side.String()+"_depth", book.Depth(side))
			if price, err := book.Price(side, 1); err == nil {
				event = event.Float64(side.String()+"_best", price)
			}
			if size, err := book.TotalSizeAvailable(side, min(5, book.Depth(side))); err == nil {
				event = event.Int64(side.String()+"_top5_size", size)
			}
		}
		event.Msg("top of book")
	}
}
