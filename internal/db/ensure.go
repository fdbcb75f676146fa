package db

import (
	"context"
	"fmt"

	"github.com/wysokinskinorbert/BIAI-sub002/internal/config"
	"github.com/wysokinskinorbert/BIAI-sub002/internal/util"
)

// EnsureDatabase creates the target database if it does not exist.
func EnsureDatabase(ctx context.Context, dsn string, dbName string) error {
	if dbName == "" {
		return nil
	}
	admin, err := Open(ctx, config.AdminDSN(dsn))
	if err != nil {
		return err
	}
	defer util.CloseWithErr(admin, "admin db")
	_, err = admin.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName))
	return err
}
