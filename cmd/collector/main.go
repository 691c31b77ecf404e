package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ziyoonee/gochagetcha-sub000/internal/collector"
	"github.com/ziyoonee/gochagetcha-sub000/internal/config"
	"github.com/ziyoonee/gochagetcha-sub000/internal/repository/postgres"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/database"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/kafka"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/logger"
)

var (
	ratePerSecond float64
	interval      time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "collector",
	Short: "GachaGetcha inventory collector",
	Long:  "Crawls shop inventory pages and refreshes the shop-gacha relation.",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single crawl pass over all shops",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRunner(cmd.Context(), func(ctx context.Context, r *collector.Runner, log *slog.Logger) error {
			failures, err := r.RunOnce(ctx)
			if err != nil {
				return err
			}
			if failures > 0 {
				log.Warn("crawl pass finished with failures", slog.Int("failures", failures))
			}
			return nil
		})
	},
}

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Crawl continuously on a fixed interval",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRunner(cmd.Context(), func(ctx context.Context, r *collector.Runner, log *slog.Logger) error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				if failures, err := r.RunOnce(ctx); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					log.Error("crawl pass failed", slog.String("error", err.Error()))
				} else if failures > 0 {
					log.Warn("crawl pass finished with failures", slog.Int("failures", failures))
				}

				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	},
}

// withRunner loads config, wires the crawl dependencies, runs fn, and tears
// everything down afterwards.
func withRunner(ctx context.Context, fn func(context.Context, *collector.Runner, *slog.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("gachagetcha-collector", cfg.LogLevel)
	slog.SetDefault(log)

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	defer pool.Close()

	var publisher collector.Publisher
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers), log)
		defer producer.Close()
		publisher = producer
	}

	fetcher := collector.NewFetcher(nil, rate.NewLimiter(rate.Limit(ratePerSecond), 1))
	runner := collector.NewRunner(
		fetcher,
		postgres.NewGachaRepository(pool),
		postgres.NewShopRepository(pool),
		postgres.NewLinkRepository(pool),
		publisher,
		log,
	)

	return fn(ctx, runner, log)
}

func init() {
	rootCmd.PersistentFlags().Float64Var(&ratePerSecond, "rate", 1.0, "Maximum requests per second")
	loopCmd.Flags().DurationVar(&interval, "interval", time.Hour, "Delay between crawl passes")
	rootCmd.AddCommand(runCmd, loopCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
