package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/campushub/backend-go/internal/errors"
)

func newTestStore(t *testing.T) *LocalVectorStore {
	t.Helper()
	store, err := NewLocalVectorStore(t.TempDir(), "test")
	require.NoError(t, err)
	return store
}

func seedStore(t *testing.T, store *LocalVectorStore) {
	t.Helper()
	err := store.Add(context.Background(),
		[]string{"chunk_0", "chunk_1", "chunk_2"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.9, 0.1, 0},
		},
		[]map[string]interface{}{
			{"has_eligibility": true, "chunk_id": 0},
			{"has_eligibility": false, "chunk_id": 1},
			{"has_eligibility": true, "chunk_id": 2},
		},
		[]string{"eligibility text", "faculty text", "mixed text"})
	require.NoError(t, err)
}

func TestLocalStoreQueryOrdersByDistance(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)

	results, err := store.Query(context.Background(), []float32{1, 0, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// 与查询向量完全一致的条目距离为0且排在最前
	assert.Equal(t, "chunk_0", results[0].ID)
	assert.InDelta(t, 0, results[0].Distance, 1e-9)
	assert.Equal(t, "chunk_2", results[1].ID)
	assert.Equal(t, "chunk_1", results[2].ID)

	// 升序
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
	assert.LessOrEqual(t, results[1].Distance, results[2].Distance)
}

func TestLocalStoreQueryTruncatesToK(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)

	results, err := store.Query(context.Background(), []float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk_0", results[0].ID)
}

func TestLocalStoreQueryAppliesFilterBeforeRanking(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)

	// chunk_1 距离查询向量最近，但被过滤条件排除
	results, err := store.Query(context.Background(), []float32{0, 1, 0}, 3,
		map[string]interface{}{"has_eligibility": true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, true, r.Metadata["has_eligibility"])
	}
	assert.Equal(t, "chunk_2", results[0].ID)
}

func TestLocalStoreFilterIsConjunctive(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)

	results, err := store.Query(context.Background(), []float32{1, 0, 0}, 3,
		map[string]interface{}{"has_eligibility": true, "chunk_id": 0})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk_0", results[0].ID)
}

func TestLocalStoreUpsertById(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)

	err := store.Add(context.Background(),
		[]string{"chunk_0"},
		[][]float32{{0, 0, 1}},
		nil,
		[]string{"replaced text"})
	require.NoError(t, err)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	results, err := store.Query(context.Background(), []float32{0, 0, 1}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "replaced text", results[0].Text)
}

func TestLocalStoreDimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)

	err := store.Add(context.Background(),
		[]string{"chunk_3"},
		[][]float32{{1, 2}},
		nil,
		[]string{"bad dimension"})
	require.Error(t, err)
	assert.True(t, apperrors.IsDimensionMismatch(err))

	_, err = store.Query(context.Background(), []float32{1, 2}, 3, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsDimensionMismatch(err))
}

func TestLocalStoreResetIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)

	require.NoError(t, store.Reset(context.Background()))
	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// 对空集合再次Reset同样成功
	require.NoError(t, store.Reset(context.Background()))

	// Reset后维度约束解除，可以换维度重建
	err = store.Add(context.Background(),
		[]string{"chunk_0"}, [][]float32{{1, 2}}, nil, []string{"rebuilt"})
	require.NoError(t, err)
}

func TestLocalStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewLocalVectorStore(dir, "test")
	require.NoError(t, err)
	err = store.Add(context.Background(),
		[]string{"chunk_0", "chunk_1"},
		[][]float32{{1, 0}, {0, 1}},
		[]map[string]interface{}{
			{"source": "handbook", "chunk_id": 0},
			{"source": "handbook", "chunk_id": 1},
		},
		[]string{"first", "second"})
	require.NoError(t, err)

	// 重新打开同一目录/集合，数据与维度约束都还在
	reopened, err := NewLocalVectorStore(dir, "test")
	require.NoError(t, err)

	count, err := reopened.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := reopened.Query(context.Background(), []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk_0", results[0].ID)
	assert.Equal(t, "first", results[0].Text)
	assert.Equal(t, "handbook", results[0].Metadata["source"])

	_, err = reopened.Query(context.Background(), []float32{1, 0, 0}, 1, nil)
	assert.True(t, apperrors.IsDimensionMismatch(err))
}

func TestLocalStoreQueryZeroK(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)

	results, err := store.Query(context.Background(), []float32{1, 0, 0}, 0, nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}
