package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"regime-allocator/internal/storage/migrations"
	pgstore "regime-allocator/internal/storage/postgres"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, log, closeLog, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog.Close()

	if cfg.Storage.PostgresDSN == "" && cfg.Storage.ClickhouseDSN == "" {
		return errors.New("no storage configured: set storage.postgres_dsn and/or storage.clickhouse_dsn")
	}

	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := pgstore.NewPool(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		err = migrations.RunPostgresMigrations(ctx, pool)
		pool.Close()
		if err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
		log.Info().Msg("postgres migrations applied")
	}

	if dsn := cfg.Storage.ClickhouseDSN; dsn != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
		if err != nil {
			return fmt.Errorf("clickhouse migrations: %w", err)
		}
		conn.Close()
		log.Info().Msg("clickhouse migrations applied")
	}
	return nil
}
