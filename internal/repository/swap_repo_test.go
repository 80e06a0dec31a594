package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"anoa.com/skillexchange/internal/bootstrap"
	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	terminate, err := setupTestDB()
	if err != nil {
		log.Printf("skipping repository tests: %s", err)
		return
	}

	code := m.Run()
	terminate()
	os.Exit(code)
}

func setupTestDB() (func(), error) {
	ctx := context.Background()

	container, err := startPostgres(ctx)
	if err != nil {
		return nil, err
	}
	terminate := func() {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return nil, err
	}

	testDB, err = gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		terminate()
		return nil, err
	}

	if err := bootstrap.Migrate(testDB); err != nil {
		terminate()
		return nil, err
	}

	return terminate, nil
}

// startPostgres recovers the panic testcontainers raises when no container
// runtime is reachable, so the suite skips instead of aborting.
func startPostgres(ctx context.Context) (container *tcpostgres.PostgresContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			container, err = nil, fmt.Errorf("container runtime unavailable: %v", r)
		}
	}()

	return tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("skillexchange_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
}

func truncateAll(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.Exec(
		`TRUNCATE TABLE swap_reviews, swap_transactions, swap_requests,
		 skill_reviews, skill_listings, categories, profiles, users CASCADE`,
	).Error)
}

func seedUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func seedListing(t *testing.T, owner *model.User) *model.SkillListing {
	t.Helper()
	category := &model.Category{Name: "cat-" + uuid.NewString()}
	require.NoError(t, testDB.Create(category).Error)
	listing := &model.SkillListing{
		UserID:          owner.ID,
		CategoryID:      category.ID,
		Title:           "Test skill",
		Description:     "desc",
		SkillType:       model.SkillTypeOffer,
		DifficultyLevel: model.DifficultyBeginner,
		IsActive:        true,
		Status:          model.ListingActive,
	}
	require.NoError(t, testDB.Create(listing).Error)
	return listing
}

func seedSwap(t *testing.T, repo SwapRepository, requester, owner *model.User) *model.SwapRequest {
	t.Helper()
	offered := seedListing(t, requester)
	requested := seedListing(t, owner)

	created, swap, err := repo.CreateIdempotent(context.Background(), &model.SwapRequest{
		RequestingUserID:  requester.ID,
		RequestedUserID:   owner.ID,
		RequestingSkillID: offered.ID,
		RequestedSkillID:  requested.ID,
		ProposedDuration:  4,
		Status:            model.SwapPending,
	})
	require.NoError(t, err)
	require.True(t, created)
	return swap
}

func TestSwapRepoCreateIdempotent(t *testing.T) {
	truncateAll(t)
	repo := NewSwapRepository(testDB)
	requester := seedUser(t, "alice")
	owner := seedUser(t, "bob")
	swap := seedSwap(t, repo, requester, owner)

	created, dup, err := repo.CreateIdempotent(context.Background(), &model.SwapRequest{
		RequestingUserID:  requester.ID,
		RequestedUserID:   owner.ID,
		RequestingSkillID: swap.RequestingSkillID,
		RequestedSkillID:  swap.RequestedSkillID,
		ProposedDuration:  4,
		Status:            model.SwapPending,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, swap.ID, dup.ID)

	var count int64
	require.NoError(t, testDB.Model(&model.SwapRequest{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSwapRepoPendingUniqueIndex(t *testing.T) {
	truncateAll(t)
	repo := NewSwapRepository(testDB)
	requester := seedUser(t, "alice")
	owner := seedUser(t, "bob")
	swap := seedSwap(t, repo, requester, owner)

	// A writer that raced past the read-then-insert check still cannot
	// produce a second pending row for the same pair.
	err := testDB.Create(&model.SwapRequest{
		RequestingUserID:  requester.ID,
		RequestedUserID:   owner.ID,
		RequestingSkillID: swap.RequestingSkillID,
		RequestedSkillID:  swap.RequestedSkillID,
		ProposedDuration:  4,
		Status:            model.SwapPending,
	}).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	// CreateIdempotent resolves the same collision to the existing row.
	created, dup, err := repo.CreateIdempotent(context.Background(), &model.SwapRequest{
		RequestingUserID:  requester.ID,
		RequestedUserID:   owner.ID,
		RequestingSkillID: swap.RequestingSkillID,
		RequestedSkillID:  swap.RequestedSkillID,
		ProposedDuration:  4,
		Status:            model.SwapPending,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, swap.ID, dup.ID)

	// Once the pending request resolves, a fresh one may be created.
	require.NoError(t, repo.Transition(context.Background(), swap.ID, model.SwapPending, model.SwapRejected))
	created, _, err = repo.CreateIdempotent(context.Background(), &model.SwapRequest{
		RequestingUserID:  requester.ID,
		RequestedUserID:   owner.ID,
		RequestingSkillID: swap.RequestingSkillID,
		RequestedSkillID:  swap.RequestedSkillID,
		ProposedDuration:  4,
		Status:            model.SwapPending,
	})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestSwapRepoTransitionGuard(t *testing.T) {
	truncateAll(t)
	repo := NewSwapRepository(testDB)
	requester := seedUser(t, "alice")
	owner := seedUser(t, "bob")
	swap := seedSwap(t, repo, requester, owner)

	require.NoError(t, repo.Transition(context.Background(), swap.ID, model.SwapPending, model.SwapAccepted))

	reloaded, err := repo.FindByID(context.Background(), swap.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SwapAccepted, reloaded.Status)
	assert.NotNil(t, reloaded.AcceptedAt)

	// A second transition from pending must not apply.
	err = repo.Transition(context.Background(), swap.ID, model.SwapPending, model.SwapRejected)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestSwapRepoComplete(t *testing.T) {
	truncateAll(t)
	repo := NewSwapRepository(testDB)
	requester := seedUser(t, "alice")
	owner := seedUser(t, "bob")
	swap := seedSwap(t, repo, requester, owner)

	require.NoError(t, repo.Transition(context.Background(), swap.ID, model.SwapPending, model.SwapAccepted))

	txn := &model.SwapTransaction{
		SwapRequestID:  swap.ID,
		StartDate:      time.Now().AddDate(0, 0, -3),
		EndDate:        time.Now(),
		ActualDuration: 3,
	}
	require.NoError(t, repo.Complete(context.Background(), swap, txn))

	reloaded, err := repo.FindByID(context.Background(), swap.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SwapCompleted, reloaded.Status)
	assert.NotNil(t, reloaded.CompletedAt)
	require.NotNil(t, reloaded.Transaction)
	assert.Equal(t, 3, reloaded.Transaction.ActualDuration)

	// Both parties' counters move exactly once.
	for _, id := range []uuid.UUID{requester.ID, owner.ID} {
		var user model.User
		require.NoError(t, testDB.First(&user, "id = ?", id).Error)
		assert.Equal(t, 1, user.TotalSwaps)
	}

	// Completing again conflicts.
	err = repo.Complete(context.Background(), swap, &model.SwapTransaction{
		SwapRequestID:  swap.ID,
		StartDate:      time.Now(),
		EndDate:        time.Now(),
		ActualDuration: 1,
	})
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestSwapRepoCreateReview(t *testing.T) {
	truncateAll(t)
	repo := NewSwapRepository(testDB)
	requester := seedUser(t, "alice")
	owner := seedUser(t, "bob")
	swap := seedSwap(t, repo, requester, owner)

	require.NoError(t, repo.Transition(context.Background(), swap.ID, model.SwapPending, model.SwapAccepted))
	require.NoError(t, repo.Complete(context.Background(), swap, &model.SwapTransaction{
		SwapRequestID:  swap.ID,
		StartDate:      time.Now().AddDate(0, 0, -1),
		EndDate:        time.Now(),
		ActualDuration: 2,
	}))

	review := &model.SwapReview{
		SwapRequestID:  swap.ID,
		ReviewerID:     requester.ID,
		ReviewedUserID: owner.ID,
		Rating:         4,
		Comment:        "solid",
	}
	require.NoError(t, repo.CreateReview(context.Background(), review))

	// The reviewed user's mean rating is recomputed in the same transaction.
	var reviewed model.User
	require.NoError(t, testDB.First(&reviewed, "id = ?", owner.ID).Error)
	assert.InDelta(t, 4.0, reviewed.Rating, 0.001)

	err := repo.CreateReview(context.Background(), &model.SwapReview{
		SwapRequestID:  swap.ID,
		ReviewerID:     requester.ID,
		ReviewedUserID: owner.ID,
		Rating:         1,
		Comment:        "changed my mind",
	})
	assert.ErrorIs(t, err, ErrDuplicateReview)

	has, err := repo.HasReviewed(context.Background(), swap.ID, requester.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSwapRepoFindForUser(t *testing.T) {
	truncateAll(t)
	repo := NewSwapRepository(testDB)
	requester := seedUser(t, "alice")
	owner := seedUser(t, "bob")
	stranger := seedUser(t, "carol")
	swap := seedSwap(t, repo, requester, owner)

	sent, total, err := repo.FindForUser(context.Background(), requester.ID, dto.SwapFilter{
		Role:      "sent",
		PageQuery: dto.PageQuery{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, sent, 1)
	assert.Equal(t, swap.ID, sent[0].ID)

	received, total, err := repo.FindForUser(context.Background(), owner.ID, dto.SwapFilter{
		Role:      "received",
		Status:    string(model.SwapPending),
		PageQuery: dto.PageQuery{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, received, 1)

	none, total, err := repo.FindForUser(context.Background(), stranger.ID, dto.SwapFilter{
		PageQuery: dto.PageQuery{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, none)
}
