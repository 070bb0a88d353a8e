package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
	"github.com/ArowuTest/mtn-ras-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *QueryRepository {
	t.Helper()
	repo, err := NewQueryRepository(testutil.NewSQLiteDB(t), QueryOptions{PageTimeout: time.Minute})
	require.NoError(t, err)
	return repo
}

func TestNextUnassessedPageHonoursPageSize(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	testutil.SeedSubscribers(t, repo.DB(), "08030000004", "08030000001", "08030000003", "08030000002")

	first, err := repo.NextUnassessedPage(ctx, "", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"08030000001", "08030000002", "08030000003"}, first)

	again, err := repo.NextUnassessedPage(ctx, "", 3)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	rest, err := repo.NextUnassessedPage(ctx, first[len(first)-1], 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"08030000004"}, rest)

	empty, err := repo.NextUnassessedPage(ctx, "08030000004", 3)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSubscribersPageSkipsDeleted(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	subs := testutil.SeedSubscribers(t, repo.DB(), "08030000001", "08030000002", "08030000003")
	require.NoError(t, repo.DB().Model(subs[1]).Update("deleted", true).Error)

	page, err := repo.SubscribersPage(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "08030000001", page[0].MSISDN)
	assert.Equal(t, "08030000003", page[1].MSISDN)

	page, err = repo.SubscribersPage(ctx, subs[0].PK, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, subs[2].PK, page[0].PK)
}

func TestEvalTablePage(t *testing.T) {
	repo := newRepo(t)
	for _, m := range []string{"08030000003", "08030000001", "08030000002"} {
		require.NoError(t, repo.DB().Exec("INSERT INTO subscriber_eval (msisdn) VALUES (?)", m).Error)
	}

	page, err := repo.EvalTablePage(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"08030000002", "08030000003"}, page)
}

func TestSubscribersWithoutAssessment(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	subs := testutil.SeedSubscribers(t, repo.DB(), "08030000001", "08030000002", "08030000003")
	require.NoError(t, repo.DB().Create(&models.SubscriberAssessment{
		SubscriberPK:  subs[1].PK,
		LastProcessed: time.Now(),
	}).Error)

	got, err := repo.SubscribersWithoutAssessment(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"08030000001", "08030000003"}, got)

	got, err = repo.SubscribersWithoutAssessment(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"08030000003"}, got)
}

func TestBorrowableAmountsAscending(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	empty, err := repo.BorrowableAmountsAscending(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, a := range []float64{500, 50, 1000, 200} {
		require.NoError(t, repo.DB().Create(&models.BorrowableAmount{Amount: a}).Error)
	}
	require.NoError(t, repo.DB().Create(&models.BorrowableAmount{Amount: 10, Deleted: true}).Error)

	ladder, err := repo.BorrowableAmountsAscending(ctx)
	require.NoError(t, err)
	got := make([]float64, 0, len(ladder))
	for _, b := range ladder {
		got = append(got, b.Amount)
	}
	assert.Equal(t, []float64{50, 200, 500, 1000}, got)
}

func TestCreateOrGetSettingIsIdempotent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.SettingByName(ctx, "ras.max.loan")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	first, err := repo.CreateOrGetSetting(ctx, "ras.max.loan", "1000", "largest tier", models.SettingTypeDecimal)
	require.NoError(t, err)
	second, err := repo.CreateOrGetSetting(ctx, "ras.max.loan", "5", "ignored", models.SettingTypeInteger)
	require.NoError(t, err)

	assert.Equal(t, first.PK, second.PK)
	assert.Equal(t, "1000", second.Value)
	assert.Equal(t, models.SettingTypeDecimal, second.Type)

	n, err := CountOf[models.Setting](ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCountOfAndByPrimaryKeyExcludeDeleted(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	subs := testutil.SeedSubscribers(t, repo.DB(), "08030000001", "08030000002")
	require.NoError(t, repo.DB().Model(subs[0]).Update("deleted", true).Error)

	n, err := CountOf[models.Subscriber](ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = ByPrimaryKey[models.Subscriber](ctx, repo, subs[0].PK)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	got, err := ByPrimaryKey[models.Subscriber](ctx, repo, subs[1].PK)
	require.NoError(t, err)
	assert.Equal(t, "08030000002", got.MSISDN)
}

func TestLookupsDistinguishFailureFromAbsence(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.SubscriberByMSISDN(ctx, "08030000001")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, repo.DB().Exec("DROP TABLE settings").Error)
	_, err = repo.SettingByName(ctx, "anything")
	require.Error(t, err)
	assert.False(t, errors.Is(err, repositories.ErrNotFound))
}

func TestRelationNamesAreValidated(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	_, err := NewQueryRepository(db, QueryOptions{ViewName: "subscriber_ras_view; DROP TABLE subscriber"})
	assert.Error(t, err)

	repo, err := NewQueryRepository(db, QueryOptions{ViewName: "public.subscriber_ras_view"})
	require.NoError(t, err)
	assert.Error(t, repo.RefreshMaterializedView(context.Background(), "x y"))
}

func TestNormalize(t *testing.T) {
	repo := newRepo(t)
	assert.Equal(t, "08031234567", repo.Normalize("+2348031234567"))
}
