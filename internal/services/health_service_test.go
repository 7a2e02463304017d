package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kuk1song/fitness-advisor/internal/models"
)

type fakeIndex struct {
	mu        sync.Mutex
	upserts   int
	searches  int
	upsertErr error
	searchErr error
	results   []string
}

func (f *fakeIndex) Upsert(_ context.Context, _ uuid.UUID, _ models.HealthData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	return f.upsertErr
}

func (f *fakeIndex) Search(_ context.Context, _ models.HealthData) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

type fakeAdvisor struct {
	mu     sync.Mutex
	calls  int
	advice string
	err    error
}

func (f *fakeAdvisor) Advise(_ context.Context, _ string, _ []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.advice, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared in-memory database alive and
	// serializes access, which sqlite needs under concurrent tests.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.HealthProfile{},
		&models.HealthHistory{},
	))
	return db
}

func newTestService(t *testing.T) (*HealthService, *fakeIndex, *fakeAdvisor, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	index := &fakeIndex{results: []string{"similar profile"}}
	adv := &fakeAdvisor{advice: "generated advice"}
	return NewHealthService(db, index, adv), index, adv, db
}

func testIdentity() Identity {
	return Identity{ID: uuid.New(), Email: "u@example.com", Name: "Test User"}
}

func testData(weight float64) models.HealthData {
	return models.HealthData{
		Weight:            weight,
		Height:            175,
		Age:               30,
		DietType:          "Vegetarian",
		ActivityLevel:     "Moderately active",
		FitnessExperience: "Beginner",
		MealFrequency:     "3-5 meals",
		SleepHours:        7,
		Goal:              "lose weight",
	}
}

func TestSubmit_InitialSubmission(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	user := testIdentity()
	ctx := context.Background()

	result, err := svc.Submit(ctx, user, testData(70))
	require.NoError(t, err)

	assert.Equal(t, "1.0", result.Version)
	assert.Equal(t, float64(70), result.Profile.Weight)
	assert.Equal(t, user.ID, result.Profile.UserID)
	assert.Equal(t, "generated advice", result.Advice)
	assert.Equal(t, []string{"similar profile"}, result.SimilarCases)

	entries, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.RecordTypeInitial, entries[0].Metadata.RecordType)
	assert.Equal(t, "1.0", entries[0].Metadata.Version)
	assert.Equal(t, float64(70), entries[0].HealthData.Data().Weight)
}

func TestSubmit_SequentialVersions(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	user := testIdentity()
	ctx := context.Background()

	for n := 1; n <= 5; n++ {
		result, err := svc.Submit(ctx, user, testData(float64(70-n)))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%d.0", n), result.Version)
	}

	entries, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	initials := 0
	for _, e := range entries {
		if e.Metadata.RecordType == models.RecordTypeInitial {
			initials++
			assert.Equal(t, "1.0", e.Metadata.Version)
		}
	}
	assert.Equal(t, 1, initials, "recordType initial must appear exactly once")
}

func TestSubmit_UpdateArchivesOldProfile(t *testing.T) {
	svc, _, _, db := newTestService(t)
	user := testIdentity()
	ctx := context.Background()

	_, err := svc.Submit(ctx, user, testData(70))
	require.NoError(t, err)

	result, err := svc.Submit(ctx, user, testData(68))
	require.NoError(t, err)
	assert.Equal(t, "2.0", result.Version)

	// Exactly one active profile with the latest payload.
	var profiles []models.HealthProfile
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&profiles).Error)
	require.Len(t, profiles, 1)
	assert.Equal(t, float64(68), profiles[0].Weight)

	// The archived update entry carries the replaced profile's data.
	entries, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.RecordTypeUpdate, entries[0].Metadata.RecordType)
	assert.Equal(t, "2.0", entries[0].Metadata.Version)
	assert.Equal(t, float64(70), entries[0].HealthData.Data().Weight)
}

func TestSubmit_IdentityComesFromSession(t *testing.T) {
	svc, _, _, db := newTestService(t)
	user := testIdentity()

	_, err := svc.Submit(context.Background(), user, testData(70))
	require.NoError(t, err)

	var profile models.HealthProfile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, user.ID, profile.UserID)
	assert.Equal(t, user.Email, profile.UserEmail)
	assert.Equal(t, user.Name, profile.UserName)
}

func TestSubmit_HistoryIsImmutable(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	user := testIdentity()
	ctx := context.Background()

	_, err := svc.Submit(ctx, user, testData(70))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, user, testData(68))
	require.NoError(t, err)

	before, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, before, 2)

	_, err = svc.Submit(ctx, user, testData(66))
	require.NoError(t, err)

	after, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, after, 3)

	// The two earlier entries are unchanged, with one new entry prepended.
	for i, old := range before {
		got := after[i+1]
		assert.Equal(t, old.ID, got.ID)
		assert.Equal(t, old.Metadata.Version, got.Metadata.Version)
		assert.Equal(t, old.Metadata.RecordType, got.Metadata.RecordType)
		assert.Equal(t, old.HealthData.Data(), got.HealthData.Data())
	}
}

func TestVersions_DescendingNumericOrder(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	user := testIdentity()
	ctx := context.Background()

	// Eleven submissions so "10.0" and "11.0" must sort above "9.0".
	for n := 1; n <= 11; n++ {
		_, err := svc.Submit(ctx, user, testData(float64(80-n)))
		require.NoError(t, err)
	}

	versions, err := svc.Versions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, versions, 11)

	assert.Equal(t, "11.0", versions[0].Version)
	assert.Equal(t, "10.0", versions[1].Version)
	assert.Equal(t, "9.0", versions[2].Version)
	assert.Equal(t, "1.0", versions[10].Version)
	assert.Equal(t, models.RecordTypeInitial, versions[10].RecordType)
}

func TestSubmit_ProfileWithoutHistoryFallsBackToVersionOne(t *testing.T) {
	svc, _, _, db := newTestService(t)
	user := testIdentity()

	// Inconsistent state: an active profile with no history behind it.
	orphan := models.HealthProfile{
		ID:         uuid.New(),
		UserID:     user.ID,
		UserEmail:  user.Email,
		UserName:   user.Name,
		HealthData: testData(90),
	}
	require.NoError(t, db.Create(&orphan).Error)

	result, err := svc.Submit(context.Background(), user, testData(88))
	require.NoError(t, err)
	assert.Equal(t, "1.0", result.Version)
}

func TestSubmit_AdviceFailureSurfacesWithoutRetry(t *testing.T) {
	svc, index, adv, db := newTestService(t)
	adv.err = errors.New("generation service down")
	user := testIdentity()

	_, err := svc.Submit(context.Background(), user, testData(70))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation service down")
	assert.Equal(t, 1, adv.calls, "advice generation must not be retried")
	assert.Equal(t, 1, index.upserts)

	// The profile and history writes stay committed; there is no rollback.
	var count int64
	require.NoError(t, db.Model(&models.HealthProfile{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&models.HealthHistory{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubmit_IndexFailureAbortsBeforeAdvice(t *testing.T) {
	svc, index, adv, _ := newTestService(t)
	index.upsertErr = errors.New("vector store unreachable")
	user := testIdentity()

	_, err := svc.Submit(context.Background(), user, testData(70))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector store unreachable")
	assert.Equal(t, 0, index.searches)
	assert.Equal(t, 0, adv.calls)
}

func TestSubmit_ConcurrentSameUserKeepsVersionsGapless(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	user := testIdentity()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), user, testData(float64(70+w)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	versions, err := svc.Versions(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, versions, n)

	seen := make(map[string]bool)
	for _, v := range versions {
		seen[v.Version] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("%d.0", i)], "missing version %d.0", i)
	}
}

func TestSubmit_DifferentUsersDoNotInterfere(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	userA := testIdentity()
	userB := testIdentity()
	ctx := context.Background()

	_, err := svc.Submit(ctx, userA, testData(70))
	require.NoError(t, err)
	resultB, err := svc.Submit(ctx, userB, testData(80))
	require.NoError(t, err)
	resultA, err := svc.Submit(ctx, userA, testData(68))
	require.NoError(t, err)

	assert.Equal(t, "1.0", resultB.Version)
	assert.Equal(t, "2.0", resultA.Version)
}

func TestProfile_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Profile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
