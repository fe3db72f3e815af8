package store

import (
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/repository"
	"alcyxob/totalfit/internal/repository/sqlite"
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sql.DB
	store *Store
	now   time.Time
	user  *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{db: db, now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	users := sqlite.NewSQLiteUserRepository(db)
	f.store = New(users, sqlite.NewSQLiteSessionRepository(db), sqlite.NewSQLitePlanRepository(db),
		Options{Now: func() time.Time { return f.now }}, nil)

	f.user = &domain.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "hash", MemberSince: "01/03/2026"}
	_, err = users.Create(context.Background(), f.user)
	require.NoError(t, err)
	return f
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.store.CreateSession(ctx, f.user.Identity(), false)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(DefaultSessionTTL), session.ExpiresAt)

	identity, err := f.store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, f.user.ID, identity.ID)
	assert.Equal(t, "Ana", identity.Name)

	require.NoError(t, f.store.ClearSession(ctx, session.ID))
	identity, err = f.store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestRememberedSessionOutlivesDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	short, err := f.store.CreateSession(ctx, f.user.Identity(), false)
	require.NoError(t, err)
	long, err := f.store.CreateSession(ctx, f.user.Identity(), true)
	require.NoError(t, err)

	f.now = f.now.Add(DefaultSessionTTL + time.Minute)

	identity, err := f.store.GetSession(ctx, short.ID)
	require.NoError(t, err)
	assert.Nil(t, identity)

	identity, err = f.store.GetSession(ctx, long.ID)
	require.NoError(t, err)
	assert.NotNil(t, identity)
}

func TestGetSessionUnknown(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"", "missing"} {
		identity, err := f.store.GetSession(context.Background(), id)
		assert.NoError(t, err)
		assert.Nil(t, identity)
	}
}

func TestPlanRoundTripExceptNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user.ID

	plan := &domain.SavedPlan{
		ID: "p1", Date: "01/03/2026", StartDate: f.now.UnixMilli(), WeekCount: 1, Name: "Fat loss (Week 1)",
		Data: domain.GeneratedPlan{
			Profile:      domain.PlanProfile{Diagnosis: "ok", Calories: 2100},
			Workout:      []domain.WorkoutDay{{Day: "Mon & Thu", Focus: "Full body", Exercises: []domain.Exercise{{Name: "Deadlift", Sets: 3, Reps: "5"}}}},
			Diet:         []domain.Meal{{MealName: "Lunch", Options: []domain.MealOption{{Name: "Rice"}}}},
			Supplements:  []domain.Supplement{},
			ShoppingList: []string{},
		},
		UserData: domain.UserProfileInput{Age: 41, Weight: 92.5, Height: 176, DaysAvailable: 3, Goal: "Fat loss"},
	}
	require.NoError(t, f.store.InsertPlan(ctx, owner, plan))

	updated := *plan
	updated.PersonalNotes = "\n[02/03/2026]: 3x5 @ 100kg"
	require.NoError(t, f.store.UpdatePlan(ctx, owner, &updated))

	plans, err := f.store.ListPlans(ctx, owner)
	require.NoError(t, err)
	require.Len(t, plans, 1)

	got := plans[0]
	assert.Equal(t, updated.PersonalNotes, got.PersonalNotes)
	got.PersonalNotes = plan.PersonalNotes
	assert.Equal(t, *plan, got)
}

func TestListPlansNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		p := &domain.SavedPlan{ID: id, StartDate: f.now.Add(time.Duration(i) * time.Hour).UnixMilli(), WeekCount: 1}
		require.NoError(t, f.store.InsertPlan(ctx, f.user.ID, p))
	}

	plans, err := f.store.ListPlans(ctx, f.user.ID)
	require.NoError(t, err)
	var ids []string
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids)

	got, ok := FindPlan(plans, "b")
	assert.True(t, ok)
	assert.Equal(t, "b", got.ID)
	_, ok = FindPlan(plans, "zzz")
	assert.False(t, ok)
}

func TestNoIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plans, err := f.store.ListPlans(ctx, "")
	assert.NoError(t, err)
	assert.NotNil(t, plans)
	assert.Empty(t, plans)

	assert.ErrorIs(t, f.store.InsertPlan(ctx, "", &domain.SavedPlan{ID: "x"}), ErrNoIdentity)
	assert.ErrorIs(t, f.store.UpdatePlan(ctx, "", &domain.SavedPlan{ID: "x"}), ErrNoIdentity)
	assert.ErrorIs(t, f.store.DeletePlan(ctx, "", "x"), ErrNoIdentity)
	_, err = f.store.CreateSession(ctx, domain.Identity{}, false)
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestMissingPlanIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.store.UpdatePlan(ctx, f.user.ID, &domain.SavedPlan{ID: "ghost"}), repository.ErrNotFound)
	assert.ErrorIs(t, f.store.DeletePlan(ctx, f.user.ID, "ghost"), repository.ErrNotFound)
}

func TestUnavailableDatabase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Close())

	plans, err := f.store.ListPlans(ctx, f.user.ID)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotNil(t, plans)
	assert.Empty(t, plans)

	err = f.store.InsertPlan(ctx, f.user.ID, &domain.SavedPlan{ID: "x", StartDate: 1})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = f.store.GetSession(ctx, "any")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestConcurrentInsertsKeepEveryPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := &domain.SavedPlan{ID: string(rune('a' + i)), StartDate: int64(i), WeekCount: 1}
			assert.NoError(t, f.store.InsertPlan(ctx, f.user.ID, p))
		}(i)
	}
	wg.Wait()

	plans, err := f.store.ListPlans(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, plans, 20)
	assert.Empty(t, f.store.locks)
}
