package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chainboard/chainboard/pkg/model"
)

// ErrNotFound is returned by GetJSON when the key is absent or expired.
// Callers treat it as a cache miss, distinct from an unreachable store.
var ErrNotFound = errors.New("store: key not found")

// Store defines the contract for caching dashboard data and persisting
// assessment history.
type Store interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	SaveAssessment(ctx context.Context, a model.Assessment) error
	ListAssessments(ctx context.Context, tokenID string, limit int) ([]model.Assessment, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

type HybridStore struct {
	redis  *redis.Client
	PG     *pgxpool.Pool
	logger *zap.Logger
}

type PGPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// NewHybrid creates a Redis-first store with an optional Postgres pool for
// assessment history. pgURL may be empty to run cache-only.
func NewHybrid(redisAddr string, redisDB int, redisPass, pgURL string, pgPoolConfig PGPoolConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		DB:       redisDB,
		Password: redisPass,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	var pgPool *pgxpool.Pool
	if pgURL != "" {
		cfg, err := pgxpool.ParseConfig(pgURL)
		if err != nil {
			return nil, fmt.Errorf("invalid pg config: %w", err)
		}
		if pgPoolConfig.MaxConns > 0 {
			cfg.MaxConns = pgPoolConfig.MaxConns
		}
		if pgPoolConfig.MinConns > 0 {
			cfg.MinConns = pgPoolConfig.MinConns
		}
		if pgPoolConfig.MaxConnLifetime > 0 {
			cfg.MaxConnLifetime = pgPoolConfig.MaxConnLifetime
		}
		if pgPoolConfig.MaxConnIdleTime > 0 {
			cfg.MaxConnIdleTime = pgPoolConfig.MaxConnIdleTime
		}
		if pgPoolConfig.HealthCheckPeriod > 0 {
			cfg.HealthCheckPeriod = pgPoolConfig.HealthCheckPeriod
		}
		pgPool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	return &HybridStore{redis: rdb, PG: pgPool, logger: logger}, nil
}

// SetJSON marshals value and writes it under key with the given TTL.
func (s *HybridStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, ttl).Err()
}

// GetJSON reads key and unmarshals it into dest. Returns ErrNotFound on miss.
func (s *HybridStore) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// SaveAssessment inserts an assessment record. No-op without Postgres.
func (s *HybridStore) SaveAssessment(ctx context.Context, a model.Assessment) error {
	if s.PG == nil {
		return nil
	}
	highlights, err := json.Marshal(a.Highlights)
	if err != nil {
		return err
	}
	_, err = s.PG.Exec(ctx, `
		INSERT INTO dashboard.assessment (
			id, token_id, org, summary, risk_level, highlights, model, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.TokenID, a.Org, a.Summary, a.RiskLevel, highlights, a.Model, a.CreatedAt)
	if err != nil {
		s.logger.Error("store.pg.insert_assessment_failed", zap.Error(err))
	}
	return err
}

// ListAssessments returns the most recent assessments for a token.
func (s *HybridStore) ListAssessments(ctx context.Context, tokenID string, limit int) ([]model.Assessment, error) {
	if s.PG == nil {
		return nil, fmt.Errorf("postgres unavailable")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.PG.Query(ctx, `
		SELECT id, token_id, org, summary, risk_level, highlights, model, created_at
		FROM dashboard.assessment
		WHERE token_id = $1
		ORDER BY created_at DESC
		LIMIT $2;
	`, tokenID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Assessment
	for rows.Next() {
		var a model.Assessment
		var highlights []byte
		if err := rows.Scan(&a.ID, &a.TokenID, &a.Org, &a.Summary,
			&a.RiskLevel, &highlights, &a.Model, &a.CreatedAt); err != nil {
			return nil, err
		}
		if len(highlights) > 0 {
			_ = json.Unmarshal(highlights, &a.Highlights)
		}
		results = append(results, a)
	}
	return results, nil
}

func (s *HybridStore) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if s.PG != nil {
		if err := s.PG.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
	}
	return nil
}

func (s *HybridStore) Close() error {
	if s.PG != nil {
		s.PG.Close()
	}
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
