package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StorageError wraps every failure surfaced by the store so callers can
// apply a single degradation policy.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("memory store %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// SituationRecord is one immutable memory entry in a role partition.
// Outcome may be nil at write time and is never edited afterwards;
// reflection appends a new record instead.
type SituationRecord struct {
	ID             string         `gorm:"column:id;primaryKey;size:36" json:"id"`
	Partition      string         `gorm:"column:partition;size:64;index:idx_partition;not null" json:"partition"`
	Situation      string         `gorm:"column:situation;type:TEXT" json:"situation"`
	Recommendation string         `gorm:"column:recommendation;type:TEXT" json:"recommendation"`
	Outcome        *float64       `gorm:"column:outcome" json:"outcome,omitempty"`
	Embedding      datatypes.JSON `gorm:"column:embedding;type:TEXT" json:"embedding"`
	CreatedAt      time.Time      `gorm:"column:created_at;index" json:"created_at"`
}

func (SituationRecord) TableName() string { return "situation_records" }

// Match is a query hit, scored by 1 - cosine distance. Scores live in
// [-1, 1]; callers must not assume non-negativity.
type Match struct {
	MatchedSituation string   `json:"matched_situation"`
	Recommendation   string   `json:"recommendation"`
	Outcome          *float64 `json:"outcome,omitempty"`
	SimilarityScore  float64  `json:"similarity_score"`
}

// Store persists (situation, recommendation, outcome) records per role
// partition and answers top-k similarity queries. Writes are append-only,
// so concurrent runs never race on read-modify-write.
type Store struct {
	db       *gorm.DB
	embedder embedding.Embedder
}

func NewStore(path string, embedder embedding.Embedder) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("db path is empty")}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	if err := db.AutoMigrate(&SituationRecord{}); err != nil {
		return nil, &StorageError{Op: "migrate", Err: err}
	}
	return &Store{db: db, embedder: embedder}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return &StorageError{Op: "close", Err: err}
	}
	return sqlDB.Close()
}

// AddSituation embeds the situation text and appends one record to the
// partition, returning the new record's id.
func (s *Store) AddSituation(ctx context.Context, partition, situation, recommendation string, outcome *float64) (string, error) {
	vec, err := s.embed(ctx, situation)
	if err != nil {
		return "", &StorageError{Op: "embed", Err: err}
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return "", &StorageError{Op: "encode embedding", Err: err}
	}
	rec := SituationRecord{
		ID:             uuid.NewString(),
		Partition:      partition,
		Situation:      situation,
		Recommendation: recommendation,
		Outcome:        outcome,
		Embedding:      datatypes.JSON(raw),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", &StorageError{Op: "insert", Err: err}
	}
	return rec.ID, nil
}

// Query returns at most k records from the partition ranked by descending
// cosine similarity to the situation text, ties broken most-recent-first.
// An empty partition yields an empty slice, not an error.
func (s *Store) Query(ctx context.Context, partition, situation string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	var records []SituationRecord
	if err := s.db.WithContext(ctx).
		Where("partition = ?", partition).
		Find(&records).Error; err != nil {
		return nil, &StorageError{Op: "select", Err: err}
	}
	if len(records) == 0 {
		return []Match{}, nil
	}

	queryVec, err := s.embed(ctx, situation)
	if err != nil {
		return nil, &StorageError{Op: "embed", Err: err}
	}

	type scored struct {
		rec   SituationRecord
		score float64
	}
	hits := make([]scored, 0, len(records))
	for _, rec := range records {
		var vec []float64
		if err := json.Unmarshal(rec.Embedding, &vec); err != nil {
			return nil, &StorageError{Op: "decode embedding", Err: err}
		}
		score, err := cosineSimilarity(queryVec, vec)
		if err != nil {
			return nil, &StorageError{Op: "score", Err: err}
		}
		hits = append(hits, scored{rec: rec, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].rec.CreatedAt.After(hits[j].rec.CreatedAt)
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		matches = append(matches, Match{
			MatchedSituation: h.rec.Situation,
			Recommendation:   h.rec.Recommendation,
			Outcome:          h.rec.Outcome,
			SimilarityScore:  h.score,
		})
	}
	return matches, nil
}

// DeleteOlderThan is the explicit retention hook: it removes records in a
// partition created before the cutoff. Nothing in the pipeline calls it.
func (s *Store) DeleteOlderThan(ctx context.Context, partition string, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("partition = ? AND created_at < ?", partition, cutoff).
		Delete(&SituationRecord{})
	if res.Error != nil {
		return 0, &StorageError{Op: "delete", Err: res.Error}
	}
	return res.RowsAffected, nil
}

func (s *Store) embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := s.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embedder returned %d vectors", len(vecs))
	}
	return vecs[0], nil
}

// cosineSimilarity rejects vectors of different dimensions: a stored
// embedding from a previous embedding model must surface, not rank wrong.
func cosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, aa, bb float64
	for i := range a {
		dot += a[i] * b[i]
		aa += a[i] * a[i]
		bb += b[i] * b[i]
	}
	if aa == 0 || bb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aa) * math.Sqrt(bb)), nil
}
