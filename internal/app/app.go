package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	shopspring "github.com/jackc/pgtype/ext/shopspring-numeric"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/comunidad/residence-service/internal/config"
	"github.com/comunidad/residence-service/internal/constants"
	"github.com/comunidad/residence-service/internal/utils"
)

const connectTimeout = 5 * time.Second

// App owns the process-wide resources: configuration and the pool.
type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
}

func NewApp(cfg *config.Config) (*App, error) {
	pool, err := connectWithBackoff(context.Background(), cfg.DBUrl, constants.DBConnectMaxAttempts, constants.DBConnectInitialDelay)
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, DB: pool}, nil
}

func (a *App) Close() {
	if a.DB == nil {
		return
	}
	a.DB.Close()
	utils.Logger.Info("database pool closed")
}

// connectWithBackoff retries connect, doubling delay after each failure.
func connectWithBackoff(ctx context.Context, url string, attempts int, delay time.Duration) (*pgxpool.Pool, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err := connect(ctx, url)
		if err == nil {
			utils.Logger.WithField("attempt", attempt).Info("connected to database")
			return pool, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		utils.Logger.WithError(err).Warnf("database not reachable (attempt %d/%d), retrying in %v", attempt, attempts, delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, lastErr)
}

func connect(parent context.Context, url string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(parent, connectTimeout)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.AfterConnect = registerNumeric

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// registerNumeric decodes NUMERIC columns straight into shopspring decimals.
func registerNumeric(_ context.Context, conn *pgx.Conn) error {
	conn.ConnInfo().RegisterDataType(pgtype.DataType{
		Value: &shopspring.Numeric{},
		Name:  "numeric",
		OID:   pgtype.NumericOID,
	})
	return nil
}
