package sqlite

import (
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/repository"
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "totalfit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createUser(t *testing.T, db *sql.DB, email string) *domain.User {
	t.Helper()
	user := &domain.User{Name: "Ana", Email: email, PasswordHash: "hash", MemberSince: "01/03/2026"}
	_, err := NewSQLiteUserRepository(db).Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteUserRepository(db)
	ctx := context.Background()

	user := createUser(t, db, " Ana@Example.com ")
	assert.NotEmpty(t, user.ID)

	got, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "01/03/2026", got.MemberSince)

	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Email)

	_, err = repo.Create(ctx, &domain.User{Name: "Other", Email: "ANA@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteSessionRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "ana@example.com")

	now := time.Now().UTC().Truncate(time.Millisecond)
	session := &domain.Session{ID: "s1", UserID: user.ID, Persistent: true, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.Persistent)
	assert.True(t, got.ExpiresAt.Equal(session.ExpiresAt))

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.GetByID(ctx, "s1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Deleting twice is fine.
	assert.NoError(t, repo.Delete(ctx, "s1"))
}

func TestPlanRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLitePlanRepository(db)
	ctx := context.Background()

	plan := &domain.SavedPlan{
		ID:        "p1",
		Owner:     "u1",
		Date:      "01/03/2026",
		StartDate: 1_000,
		WeekCount: 1,
		Name:      "Hypertrophy (Week 1)",
		Data: domain.GeneratedPlan{
			Profile:      domain.PlanProfile{Diagnosis: "fit", Calories: 2500, Macros: domain.Macros{Protein: 150}, Hydration: 3},
			Workout:      []domain.WorkoutDay{{Day: "Mon", Exercises: []domain.Exercise{{Name: "Squat", Sets: 4}}}},
			Diet:         []domain.Meal{},
			Supplements:  []domain.Supplement{},
			ShoppingList: []string{"Eggs"},
		},
		UserData:  domain.UserProfileInput{Age: 30, Weight: 80, Height: 180, DaysAvailable: 4},
		ExportKey: "exports/u1/p1.json",
	}
	require.NoError(t, repo.Insert(ctx, plan))

	newer := &domain.SavedPlan{ID: "p2", Owner: "u1", StartDate: 2_000, WeekCount: 2, PreviousID: "p1"}
	require.NoError(t, repo.Insert(ctx, newer))
	require.NoError(t, repo.Insert(ctx, &domain.SavedPlan{ID: "p3", Owner: "u2", StartDate: 3_000}))

	plans, err := repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "p2", plans[0].ID)
	assert.Equal(t, *plan, plans[1])

	plan.PersonalNotes = "felt strong"
	require.NoError(t, repo.Replace(ctx, plan))
	plans, err = repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "felt strong", plans[1].PersonalNotes)

	// Another owner cannot touch the plan.
	foreign := *plan
	foreign.Owner = "u2"
	assert.ErrorIs(t, repo.Replace(ctx, &foreign), repository.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "u2", "p1"), repository.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "u1", "p1"))
	plans, err = repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	empty, err := repo.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestPlanRepositorySameStartKeepsInsertionOrder(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLitePlanRepository(db)
	ctx := context.Background()

	// Ids sort opposite to insertion order.
	for _, id := range []string{"z-first", "m-second", "a-third"} {
		require.NoError(t, repo.Insert(ctx, &domain.SavedPlan{ID: id, Owner: "u1", StartDate: 5_000}))
	}

	plans, err := repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "a-third", plans[0].ID)
	assert.Equal(t, "m-second", plans[1].ID)
	assert.Equal(t, "z-first", plans[2].ID)

	// Editing an older plan does not move it.
	oldest := plans[2]
	oldest.PersonalNotes = "edited"
	require.NoError(t, repo.Replace(ctx, &oldest))
	plans, err = repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a-third", plans[0].ID)
	assert.Equal(t, "z-first", plans[2].ID)
}
