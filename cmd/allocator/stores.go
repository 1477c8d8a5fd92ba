package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"regime-allocator/internal/config"
	"regime-allocator/internal/execution"
	"regime-allocator/internal/execution/kafka"
	"regime-allocator/internal/ingestion"
	"regime-allocator/internal/observability"
	"regime-allocator/internal/storage"
	chstore "regime-allocator/internal/storage/clickhouse"
	"regime-allocator/internal/storage/memory"
	pgstore "regime-allocator/internal/storage/postgres"
	redisstore "regime-allocator/internal/storage/redis"
)

// allStores holds the storage implementations used by the commands.
type allStores struct {
	bars       storage.PriceBarStore
	records    storage.DecisionRecordStore
	selections storage.SelectionStore
}

// createStores wires memory stores, or ClickHouse for bars and PostgreSQL
// for decision records. Selections go to Redis when an address is set.
func createStores(ctx context.Context, cfg config.StorageConfig, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		return &allStores{
			bars:       memory.NewPriceBarStore(),
			records:    memory.NewDecisionRecordStore(),
			selections: memory.NewSelectionStore(),
		}, func() {}, nil
	}

	if cfg.PostgresDSN == "" || cfg.ClickhouseDSN == "" {
		return nil, nil, errors.New("storage.postgres_dsn and storage.clickhouse_dsn are required (use --memory for in-memory storage)")
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	chConn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	stores := &allStores{
		bars:       chstore.NewPriceBarStore(chConn),
		records:    pgstore.NewDecisionRecordStore(pool),
		selections: memory.NewSelectionStore(),
	}

	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			chConn.Close()
			pool.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		stores.selections = redisstore.NewSelectionStore(rdb, cfg.RedisNamespace)
	}

	cleanup := func() {
		if rdb != nil {
			rdb.Close()
		}
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// createSink returns the Kafka order sink, or nil when no brokers are set.
func createSink(cfg config.KafkaConfig) (execution.Sink, func(), error) {
	if len(cfg.Brokers) == 0 {
		return nil, func() {}, nil
	}
	sink, err := kafka.NewSink(kafka.Config{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("kafka sink: %w", err)
	}
	return sink, func() { sink.Close() }, nil
}

// ingestCSV loads every file into store. The file name without extension
// is the symbol of rows that carry none.
func ingestCSV(ctx context.Context, store storage.PriceBarStore, paths []string, from, to int64, log zerolog.Logger) (ingestion.Result, error) {
	var total ingestion.Result
	for _, path := range paths {
		src, err := ingestion.OpenCSVSource(path, symbolFromPath(path))
		if err != nil {
			return total, err
		}
		m := ingestion.NewManager(ingestion.ManagerOptions{
			Source: src,
			Store:  store,
			Logger: log.With().Str("file", path).Logger(),
		})
		res, err := m.IngestAll(ctx, from, to)
		total.Ingested += res.Ingested
		total.Rejected += res.Rejected
		if err != nil {
			return total, fmt.Errorf("ingest %s: %w", path, err)
		}
	}
	return total, nil
}

func symbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

// startHTTPServer serves health and Prometheus metrics until ctx ends.
func startHTTPServer(ctx context.Context, addr string, log zerolog.Logger) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Info().Str("addr", addr).Msg("starting HTTP server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("HTTP server error")
	}
}
