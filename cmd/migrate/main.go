package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ivankuzmin/pricearchive/internal/cache"
	"github.com/ivankuzmin/pricearchive/internal/config"
	"github.com/ivankuzmin/pricearchive/internal/kafka"
	"github.com/ivankuzmin/pricearchive/internal/logging"
	"github.com/ivankuzmin/pricearchive/internal/migrate"
	"github.com/ivankuzmin/pricearchive/internal/queue"
	"github.com/ivankuzmin/pricearchive/internal/store"
)

func main() {
	godotenv.Load()
	logging.InitFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("[migrate] config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		logging.Fatalf("[migrate] config: %v", err)
	}

	st, err := store.Open(ctx, store.DefaultDriver, cfg.TargetDSN())
	if err != nil {
		logging.Fatalf("[migrate] open target: %v", err)
	}
	defer st.Close()

	cats := categoryCache()
	if cats != nil {
		defer cats.Close()
	}

	m := &migrate.Migrator{
		Store: st,
		Root:  cfg.SourceRoot,
		Loc:   loc,
		Cats:  cats,
	}

	start := time.Now()
	res, err := m.Run(ctx)
	if err != nil {
		logging.Fatalf("[migrate] migration failed: %v", err)
	}
	logging.Infof("[migrate] migration complete: %d snapshots, %d price rows in %s",
		len(res.Snapshots), res.Rows, time.Since(start).Round(time.Millisecond))

	publishReports(ctx, res)
}

// categoryCache builds the cross-run Redis cache when REDIS_ADDR is set.
// Without it the migrator runs with just its run-local cache.
func categoryCache() cache.CategoryCache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	ttl := time.Duration(envInt("REDIS_CACHE_TTL_HOURS", 240)) * time.Hour
	cats, err := cache.NewRedisCategoryCache(addr, os.Getenv("REDIS_PASSWORD"), envInt("REDIS_DB", 0), ttl, "category")
	if err != nil {
		logging.Fatalf("[migrate] redis cache: %v", err)
	}
	return cats
}

// publishReports sends per-snapshot reports to Kafka when brokers are
// configured. The run is already committed, so failures here only log.
func publishReports(ctx context.Context, res migrate.Result) {
	if os.Getenv("KAFKA_BROKERS") == "" || len(res.Snapshots) == 0 {
		return
	}
	brokers := kafka.Brokers()
	topic := kafka.TopicFromEnv("MIGRATION_KAFKA_TOPIC", kafka.DefaultMigrationTopic)

	waitCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()
	if err := kafka.WaitForBroker(waitCtx, brokers); err != nil {
		logging.Errorf("[migrate] wait for broker: %v", err)
		return
	}
	if err := kafka.EnsureTopic(waitCtx, brokers, topic); err != nil {
		logging.Errorf("[migrate] ensure topic warning: %v", err)
	}

	writer := kafka.NewWriter(brokers, topic)
	defer writer.Close()
	if err := queue.PublishReports(ctx, writer, res.Snapshots); err != nil {
		logging.Errorf("[migrate] publish reports: %v", err)
		return
	}
	logging.Infof("[migrate] published %d reports to %s", len(res.Snapshots), topic)
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
