package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps exact texts to fixed vectors, making similarity
// rankings deterministic.
type fakeEmbedder struct {
	vecs map[string][]float64
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for _, t := range texts {
		v, ok := f.vecs[t]
		if !ok {
			return nil, fmt.Errorf("no fixture vector for %q", t)
		}
		out = append(out, v)
	}
	return out, nil
}

func newTestStore(t *testing.T, vecs map[string][]float64) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "memory.db"), &fakeEmbedder{vecs: vecs})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestQueryEmptyPartition(t *testing.T) {
	store := newTestStore(t, map[string][]float64{"anything": {1, 0}})

	matches, err := store.Query(context.Background(), "bull_memory", "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.NotNil(t, matches)
}

func TestQueryZeroK(t *testing.T) {
	store := newTestStore(t, nil)
	matches, err := store.Query(context.Background(), "bull_memory", "anything", 0)
	require.NoError(t, err)
	assert.Nil(t, matches)
}

func TestQueryRanksBySimilarity(t *testing.T) {
	vecs := map[string][]float64{
		"bull market rally":  {1, 0},
		"mild uptrend":       {0.9, 0.4359},
		"bear market crash":  {-1, 0},
		"query: strong bull": {1, 0},
	}
	store := newTestStore(t, vecs)
	ctx := context.Background()

	for situation, rec := range map[string]string{
		"bull market rally": "buy the dip",
		"mild uptrend":      "scale in slowly",
		"bear market crash": "stay out",
	} {
		_, err := store.AddSituation(ctx, "bull_memory", situation, rec, nil)
		require.NoError(t, err)
	}

	matches, err := store.Query(ctx, "bull_memory", "query: strong bull", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "buy the dip", matches[0].Recommendation)
	assert.InDelta(t, 1.0, matches[0].SimilarityScore, 1e-9)
	assert.Equal(t, "scale in slowly", matches[1].Recommendation)
	assert.Greater(t, matches[0].SimilarityScore, matches[1].SimilarityScore)
}

func TestQueryRespectsPartitions(t *testing.T) {
	vecs := map[string][]float64{"situation": {1, 0}}
	store := newTestStore(t, vecs)
	ctx := context.Background()

	_, err := store.AddSituation(ctx, "bull_memory", "situation", "bull lesson", nil)
	require.NoError(t, err)
	_, err = store.AddSituation(ctx, "bear_memory", "situation", "bear lesson", nil)
	require.NoError(t, err)

	matches, err := store.Query(ctx, "bear_memory", "situation", 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "bear lesson", matches[0].Recommendation)
}

func TestQueryIsIdempotent(t *testing.T) {
	vecs := map[string][]float64{"situation": {0.6, 0.8}}
	store := newTestStore(t, vecs)
	ctx := context.Background()

	_, err := store.AddSituation(ctx, "trader_memory", "situation", "hold steady", nil)
	require.NoError(t, err)

	first, err := store.Query(ctx, "trader_memory", "situation", 3)
	require.NoError(t, err)
	second, err := store.Query(ctx, "trader_memory", "situation", 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestQueryCapsAtK(t *testing.T) {
	vecs := map[string][]float64{"q": {1, 0}}
	for i := 0; i < 5; i++ {
		vecs[fmt.Sprintf("s%d", i)] = []float64{1, float64(i) * 0.1}
	}
	store := newTestStore(t, vecs)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.AddSituation(ctx, "bull_memory", fmt.Sprintf("s%d", i), fmt.Sprintf("r%d", i), nil)
		require.NoError(t, err)
	}

	matches, err := store.Query(ctx, "bull_memory", "q", 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestAddSituationStoresOutcome(t *testing.T) {
	vecs := map[string][]float64{"situation": {1, 1}}
	store := newTestStore(t, vecs)
	ctx := context.Background()

	outcome := 0.073
	id, err := store.AddSituation(ctx, "risk_judge_memory", "situation", "trim exposure", &outcome)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	matches, err := store.Query(ctx, "risk_judge_memory", "situation", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.NotNil(t, matches[0].Outcome)
	assert.InDelta(t, 0.073, *matches[0].Outcome, 1e-9)
}

func TestDeleteOlderThan(t *testing.T) {
	vecs := map[string][]float64{"situation": {1, 0}}
	store := newTestStore(t, vecs)
	ctx := context.Background()

	_, err := store.AddSituation(ctx, "bull_memory", "situation", "lesson", nil)
	require.NoError(t, err)

	removed, err := store.DeleteOlderThan(ctx, "bull_memory", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	matches, err := store.Query(ctx, "bull_memory", "situation", 1)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		a, b []float64
		want float64
	}{
		{[]float64{1, 0}, []float64{2, 0}, 1.0},
		{[]float64{1, 0}, []float64{-3, 0}, -1.0},
		{[]float64{1, 0}, []float64{0, 1}, 0.0},
		{[]float64{0, 0}, []float64{1, 1}, 0.0},
	}
	for _, tc := range cases {
		got, err := cosineSimilarity(tc.a, tc.b)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got, 1e-9)
	}

	_, err := cosineSimilarity([]float64{1, 0}, []float64{1, 0, 0})
	assert.Error(t, err)
}

func TestQueryErrorsOnEmbeddingDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.db")
	ctx := context.Background()

	store, err := NewStore(path, &fakeEmbedder{vecs: map[string][]float64{
		"old regime": {1, 0},
	}})
	require.NoError(t, err)
	_, err = store.AddSituation(ctx, "bull_memory", "old regime", "hold the line", nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopen against the same db with a wider embedding model.
	store, err = NewStore(path, &fakeEmbedder{vecs: map[string][]float64{
		"new regime": {1, 0, 0},
	}})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.Query(ctx, "bull_memory", "new regime", 1)
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "score", serr.Op)
}
