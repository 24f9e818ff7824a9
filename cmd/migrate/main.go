package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Applies the SQL files listed in .migrate.yaml, in order, one transaction
// per file. Globs are allowed; matches are sorted so numbered migrations run
// in sequence.

func applyFile(ctx context.Context, conn *pgx.Conn, file string) error {
	body, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "read migration")
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	if _, err := tx.Exec(ctx, string(body)); err != nil {
		_ = tx.Rollback(ctx)
		return errors.Wrap(err, "exec")
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}

func main() {
	viper.SetConfigName(".migrate")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	dsn := viper.GetString("dsn")
	if env := os.Getenv("DATABASE_DSN"); env != "" {
		dsn = env
	}
	if dsn == "" {
		panic("has no dsn in config and DATABASE_DSN is empty")
	}

	patterns := viper.GetStringSlice("files")
	if len(patterns) == 0 {
		panic("has no files in config")
	}
	files := make([]string, 0)
	for _, pattern := range patterns {
		f, err := filepath.Glob(pattern)
		if err != nil {
			panic(fmt.Errorf("get file glob: %w", err))
		}
		files = append(files, f...)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		panic(fmt.Errorf("connect: %w", err))
	}
	defer func() { _ = conn.Close(ctx) }()

	for _, file := range files {
		if err := applyFile(ctx, conn, file); err != nil {
			panic(fmt.Errorf("%s: %w", file, err))
		}
		fmt.Printf("%s file complete\n", file)
	}
	fmt.Println("done")
}
