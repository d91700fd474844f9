package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultRetentionDays = 30

// Result es lo que devuelve la lambda (queda en el log de la invocación).
type Result struct {
	AnalyticsDeleted    int64  `json:"analytics_deleted"`
	TempChannelsDeleted int64  `json:"temp_channels_deleted"`
	Status              string `json:"status"`
}

func retentionDays() int {
	if n, err := strconv.Atoi(os.Getenv("ANALYTICS_RETENTION_DAYS")); err == nil && n > 0 {
		return n
	}
	return defaultRetentionDays
}

func handler(ctx context.Context) (Result, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Result{Status: "no DATABASE_URL"}, nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return Result{Status: fmt.Sprintf("parse: %v", err)}, nil
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return Result{Status: fmt.Sprintf("pool: %v", err)}, nil
	}
	defer pool.Close()

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var res Result
	tag, err := pool.Exec(cctx,
		`DELETE FROM analytics_events WHERE ts < now() - make_interval(days => $1);`,
		retentionDays())
	if err != nil {
		return Result{Status: fmt.Sprintf("analytics: %v", err)}, err
	}
	res.AnalyticsDeleted = tag.RowsAffected()

	// el bot ya borra lo suyo; esto limpia lo que quedó de procesos caídos
	tag, err = pool.Exec(cctx, `DELETE FROM temp_channels WHERE expires_at < now();`)
	if err != nil {
		return Result{Status: fmt.Sprintf("temp_channels: %v", err)}, err
	}
	res.TempChannelsDeleted = tag.RowsAffected()

	res.Status = "ok"
	return res, nil
}

func main() { lambda.Start(handler) }
