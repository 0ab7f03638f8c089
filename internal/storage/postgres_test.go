package storage

import (
	"context"
	"errors"
	"math/big"
	"regexp"
	"testing"
	"time"

	"github.com/comicverse/txgate/internal/models"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTx = "0xABCDEF0000000000000000000000000000000000000000000000000000000001"

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresRepositoryWithPool(mock), mock
}

func testMutation() (*models.ProcessedTransaction, *models.Entity) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entity := &models.Entity{
		ID:             "6f1d1c2e-8d3a-4b8f-9f51-1c2d3e4f5a6b",
		Kind:           models.CharacterMint,
		Name:           "hero_one",
		CreatorAddress: "0x00000000000000000000000000000000000a11ce",
		TxHash:         testTx,
		Attributes: models.Attributes{
			TokenID: models.BigIntFromInt64(7),
			Image:   "ipfs://abc",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	record := &models.ProcessedTransaction{
		TxHash:            testTx,
		Kind:              models.CharacterMint,
		ConsumedAt:        now,
		ResultingEntityID: entity.ID,
	}
	return record, entity
}

func TestPostgres_ApplyMutationCommits(t *testing.T) {
	repo, mock := newMockRepo(t)
	record, entity := testMutation()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO processed_transactions")).
		WithArgs("0xabcdef0000000000000000000000000000000000000000000000000000000001", "CHARACTER_MINT", record.ConsumedAt, entity.ID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO characters")).
		WithArgs(entity.ID, "0xabcdef0000000000000000000000000000000000000000000000000000000001", "hero_one", entity.CreatorAddress,
			[]byte(`{"tokenId":"7","image":"ipfs://abc"}`), entity.CreatedAt, entity.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ApplyMutation(context.Background(), record, entity))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ApplyMutationDuplicateRecord(t *testing.T) {
	repo, mock := newMockRepo(t)
	record, entity := testMutation()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO processed_transactions")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "processed_transactions_pkey"})
	mock.ExpectRollback()

	err := repo.ApplyMutation(context.Background(), record, entity)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ApplyMutationDuplicateEntityRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	record, entity := testMutation()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO processed_transactions")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO characters")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "characters_tx_hash_key"})
	mock.ExpectRollback()

	err := repo.ApplyMutation(context.Background(), record, entity)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ApplyMutationOtherFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	record, entity := testMutation()
	boom := errors.New("connection reset by peer")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO processed_transactions")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := repo.ApplyMutation(context.Background(), record, entity)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDuplicateTransaction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ApplyMutationUnknownKind(t *testing.T) {
	repo, mock := newMockRepo(t)
	record, entity := testMutation()
	entity.Kind = "BURN"

	assert.Error(t, repo.ApplyMutation(context.Background(), record, entity))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindProcessed(t *testing.T) {
	repo, mock := newMockRepo(t)
	consumed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM processed_transactions")).
		WithArgs("0xabcdef0000000000000000000000000000000000000000000000000000000001").
		WillReturnRows(pgxmock.NewRows([]string{"tx_hash", "kind", "consumed_at", "resulting_entity_id"}).
			AddRow("0xabcdef0000000000000000000000000000000000000000000000000000000001", "PROMPT_PURCHASE", consumed, "id-1"))

	rec, err := repo.FindProcessed(context.Background(), testTx)
	require.NoError(t, err)
	assert.Equal(t, models.PromptPurchase, rec.Kind)
	assert.Equal(t, "id-1", rec.ResultingEntityID)
	assert.Equal(t, consumed, rec.ConsumedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindProcessedNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM processed_transactions")).
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindProcessed(context.Background(), testTx)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func entityRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "tx_hash", "name", "creator_address", "document", "created_at", "updated_at"})
}

func TestPostgres_GetComic(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	huge, _ := new(big.Int).SetString("18446744073709551617", 10)

	mock.ExpectQuery(regexp.QuoteMeta("FROM comics WHERE comic_id = $1::numeric")).
		WithArgs("18446744073709551617").
		WillReturnRows(entityRows().AddRow("c-1", testTx, "Moon Saga", "0xcreator",
			[]byte(`{"comicId":"18446744073709551617","image":"ipfs://cover"}`), created, created))

	comic, err := repo.GetComic(context.Background(), huge)
	require.NoError(t, err)
	assert.Equal(t, models.ComicCreate, comic.Kind)
	assert.Equal(t, "Moon Saga", comic.Name)
	assert.True(t, comic.ComicID.Equal(huge))
	assert.Equal(t, "ipfs://cover", comic.Image)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListEntitiesWithFilters(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM strip_candidates WHERE comic_id = $1::numeric AND day = $2::numeric ORDER BY created_at DESC LIMIT $3")).
		WithArgs("4", "2", 50).
		WillReturnRows(entityRows().
			AddRow("s-2", "0x02", "strip 12", "0xa", []byte(`{"stripId":"12","comicId":"4","day":"2"}`), created, created).
			AddRow("s-1", "0x01", "strip 11", "0xb", []byte(`{"stripId":"11","comicId":"4","day":"2"}`), created, created))

	got, err := repo.ListEntities(context.Background(), models.EntityFilter{
		Kind:    models.StripCandidateCreate,
		ComicID: models.BigIntFromInt64(4),
		Day:     models.BigIntFromInt64(2),
		Limit:   50,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s-2", got[0].ID)
	assert.True(t, got[1].StripID.Equal(big.NewInt(11)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListEntitiesSearchEscapesWildcards(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM props WHERE name ILIKE '%' || $1 || '%'")).
		WithArgs(`50\%\_off`).
		WillReturnRows(entityRows())

	got, err := repo.ListEntities(context.Background(), models.EntityFilter{Kind: models.PropMint, Search: "50%_off"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateComicCoverNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE comics")).
		WithArgs("9", "ipfs://new", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.UpdateComicCover(context.Background(), big.NewInt(9), "ipfs://new")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Migrate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS processed_transactions")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, repo.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("23505")))
}
