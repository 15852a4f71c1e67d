// Package history persists completed analyses to PostgreSQL. Persistence is
// best-effort: the store is optional and writes happen off the request path,
// so a database outage never blocks or fails an analysis.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kapu/lessonlens/internal/domain"
)

type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &Store{db: db, logger: logger}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("PostgreSQL history store connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)

	return store, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS analysis_history (
			id          BIGSERIAL PRIMARY KEY,
			video_id    VARCHAR(16) NOT NULL,
			intention   TEXT NOT NULL,
			match_score INTEGER NOT NULL,
			result      JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_analysis_history_video_id
			ON analysis_history (video_id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// Record saves one completed analysis. Errors are logged, not returned, so
// callers can fire this from a goroutine without handling anything.
func (s *Store) Record(ctx context.Context, videoID, intention string, response *domain.AnalysisResponse) {
	payload, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("Failed to marshal analysis for history", zap.Error(err))
		return
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_history (video_id, intention, match_score, result)
		 VALUES ($1, $2, $3, $4)`,
		videoID, intention, response.MatchScore, payload)
	if err != nil {
		s.logger.Error("Failed to record analysis history",
			zap.String("video_id", videoID),
			zap.Error(err))
		return
	}

	s.logger.Debug("Analysis recorded",
		zap.String("video_id", videoID),
		zap.Int("match_score", response.MatchScore))
}

// RecentForVideo returns the most recent analyses stored for a video, newest
// first.
func (s *Store) RecentForVideo(ctx context.Context, videoID string, limit int) ([]*domain.AnalysisResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT result FROM analysis_history
		 WHERE video_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		videoID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}
	defer rows.Close()

	var results []*domain.AnalysisResponse
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		var response domain.AnalysisResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			s.logger.Warn("Skipping undecodable history row", zap.Error(err))
			continue
		}
		results = append(results, &response)
	}
	return results, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
