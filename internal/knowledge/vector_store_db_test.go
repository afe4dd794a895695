package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/campushub/backend-go/internal/errors"
)

// newMockDBStore 直接组装存储实例，跳过建表迁移
func newMockDBStore(t *testing.T) (*DatabaseVectorStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return &DatabaseVectorStore{db: gdb, collection: "test"}, mock
}

func TestDatabaseStoreQueryRanksInMemory(t *testing.T) {
	store, mock := newMockDBStore(t)

	rows := sqlmock.NewRows([]string{"id", "collection", "chunk_text", "embedding", "metadata"}).
		AddRow("chunk_0", "test", "far text", "[0,1]", `{"chunk_id":0}`).
		AddRow("chunk_1", "test", "near text", "[1,0]", `{"chunk_id":1}`)
	mock.ExpectQuery(`SELECT \* FROM "qa_chunks" WHERE collection = \$1`).
		WithArgs("test").
		WillReturnRows(rows)

	results, err := store.Query(context.Background(), []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// 余弦距离在Go侧计算并排序
	assert.Equal(t, "chunk_1", results[0].ID)
	assert.InDelta(t, 0, results[0].Distance, 1e-9)
	assert.Equal(t, "chunk_0", results[1].ID)
	assert.Equal(t, float64(1), results[1].Metadata["chunk_id"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseStoreQueryAppliesFilter(t *testing.T) {
	store, mock := newMockDBStore(t)

	rows := sqlmock.NewRows([]string{"id", "collection", "chunk_text", "embedding", "metadata"}).
		AddRow("chunk_0", "test", "eligibility", "[1,0]", `{"has_eligibility":true}`).
		AddRow("chunk_1", "test", "faculty", "[1,0]", `{"has_eligibility":false}`)
	mock.ExpectQuery(`SELECT \* FROM "qa_chunks"`).
		WillReturnRows(rows)

	results, err := store.Query(context.Background(), []float32{1, 0}, 5,
		map[string]interface{}{"has_eligibility": true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk_0", results[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseStoreQueryPropagatesError(t *testing.T) {
	store, mock := newMockDBStore(t)

	mock.ExpectQuery(`SELECT \* FROM "qa_chunks"`).
		WillReturnError(errors.New("connection refused"))

	_, err := store.Query(context.Background(), []float32{1, 0}, 3, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreIO(err))
}

func TestDatabaseStoreCount(t *testing.T) {
	store, mock := newMockDBStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "qa_chunks"`).
		WithArgs("test").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestDatabaseStoreReset(t *testing.T) {
	store, mock := newMockDBStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "qa_chunks"`).
		WithArgs("test").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "qa_collections"`).
		WithArgs("test").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Reset(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseStoreAddLengthValidation(t *testing.T) {
	store, _ := newMockDBStore(t)

	err := store.Add(context.Background(),
		[]string{"chunk_0"}, [][]float32{{1, 0}, {0, 1}}, nil, []string{"text"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
