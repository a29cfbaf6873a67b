package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/minjaelab/prompter/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS refinement_requests (
		id TEXT PRIMARY KEY,
		user_query TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS refinements (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		enhanced_eng_prompt TEXT NOT NULL,
		back_translation_kor TEXT NOT NULL,
		model TEXT,
		latency_ms INTEGER,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (request_id) REFERENCES refinement_requests(id)
	);

	-- refinement_memory caches completed refinements keyed by the
	-- normalized query so a repeated query skips the upstream call.
	CREATE TABLE IF NOT EXISTS refinement_memory (
		id TEXT PRIMARY KEY,
		user_query TEXT NOT NULL,
		enhanced_eng_prompt TEXT NOT NULL,
		back_translation_kor TEXT NOT NULL,
		provider TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_query)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON refinement_memory(user_query);
	CREATE INDEX IF NOT EXISTS idx_refinements_request ON refinements(request_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) SaveRequest(ctx context.Context, req internal.RefinementRequest) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refinement_requests (id, user_query, created_at) VALUES (?, ?, ?)`,
		req.ID, req.UserQuery, req.Timestamp)
	return err
}

func (s *Store) SaveRefinement(ctx context.Context, requestID, providerName, enhancedEng, backTranslationKor, model string, latencyMs int, errMsg string) error {
	id := fmt.Sprintf("%s_%s", requestID, providerName)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refinements (id, request_id, provider, enhanced_eng_prompt, back_translation_kor, model, latency_ms, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, requestID, providerName, enhancedEng, backTranslationKor, model, latencyMs, errMsg)
	return err
}

// GetCached looks up a completed refinement for the normalized query and
// bumps its usage counter on a hit. Invalidated entries miss.
func (s *Store) GetCached(ctx context.Context, userQuery string) (string, string, bool, error) {
	var enhancedEng, backTranslationKor string
	var invalidated bool

	err := s.db.QueryRowContext(ctx,
		`SELECT enhanced_eng_prompt, back_translation_kor, invalidated FROM refinement_memory WHERE user_query = ?`,
		normalizeText(userQuery)).Scan(&enhancedEng, &backTranslationKor, &invalidated)

	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}

	if invalidated {
		return "", "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE refinement_memory SET usage_count = usage_count + 1, last_used = ? WHERE user_query = ?`,
		time.Now(), normalizeText(userQuery))

	return enhancedEng, backTranslationKor, true, err
}

// SaveToMemory records a refinement for the normalized query. Re-saving a
// known query refreshes its content and un-invalidates it while keeping the
// usage counter growing.
func (s *Store) SaveToMemory(ctx context.Context, userQuery, enhancedEng, backTranslationKor, providerName string) error {
	id := fmt.Sprintf("mem_%d", time.Now().UnixNano())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refinement_memory (id, user_query, enhanced_eng_prompt, back_translation_kor, provider, usage_count, invalidated, last_used, created_at)
		 VALUES (?, ?, ?, ?, ?, 1, FALSE, ?, ?)
		 ON CONFLICT(user_query) DO UPDATE SET
			enhanced_eng_prompt = excluded.enhanced_eng_prompt,
			back_translation_kor = excluded.back_translation_kor,
			provider = excluded.provider,
			usage_count = refinement_memory.usage_count + 1,
			invalidated = FALSE,
			last_used = excluded.last_used`,
		id, normalizeText(userQuery), enhancedEng, backTranslationKor, providerName, time.Now(), time.Now())
	return err
}

// MemoryEntry is a row from the refinement_memory table.
type MemoryEntry struct {
	ID                 string
	UserQuery          string
	EnhancedEngPrompt  string
	BackTranslationKor string
	Provider           string
	UsageCount         int
	Invalidated        bool
	LastUsed           time.Time
}

// CacheStats summarises refinement memory usage.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refinement_memory SET invalidated = TRUE WHERE id = ?`, id)
	return err
}

// DeleteMemory permanently removes a refinement memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM refinement_memory WHERE id = ?`, id)
	return err
}

// ClearMemory removes all refinement memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refinement_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns all refinement memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_query, enhanced_eng_prompt, back_translation_kor, provider, usage_count, invalidated, last_used FROM refinement_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.UserQuery, &e.EnhancedEngPrompt, &e.BackTranslationKor, &e.Provider, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the refinement memory.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM refinement_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
