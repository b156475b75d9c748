package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomwatch/backend/internal/model"
)

func newMockUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	return NewUserRepository(db), mock
}

func userRows(id uuid.UUID, email string, plan string) *sqlmock.Rows {
	hash := "$2a$10$abc"
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "plan", "created_at", "updated_at"}).
		AddRow(id, email, &hash, plan, time.Now(), time.Now())
}

func TestUserRepository_Create(t *testing.T) {
	t.Parallel()

	repo, mock := newMockUserRepo(t)

	hash := "$2a$10$abc123"
	user := &model.User{Email: "test@example.com", PasswordHash: &hash}

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), user.Email, user.PasswordHash, model.PlanFree).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	err := repo.Create(context.Background(), user)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID, "Create assigns an ID when none is set")
	assert.Equal(t, model.PlanFree, user.Plan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockUserRepo(t)
		mock.ExpectQuery(`SELECT \* FROM users WHERE email = \$1`).
			WithArgs("test@example.com").
			WillReturnRows(userRows(uuid.New(), "test@example.com", "free"))

		user, err := repo.GetByEmail(context.Background(), "test@example.com")

		require.NoError(t, err)
		assert.Equal(t, "test@example.com", user.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row maps to ErrUserNotFound", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockUserRepo(t)
		mock.ExpectQuery(`SELECT \* FROM users WHERE email = \$1`).
			WithArgs("notfound@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByEmail(context.Background(), "notfound@example.com")

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockUserRepo(t)
		userID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1`).
			WithArgs(userID).
			WillReturnRows(userRows(userID, "test@example.com", "premium"))

		user, err := repo.GetByID(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, model.PlanPremium, user.Plan)
	})

	t.Run("missing row maps to ErrUserNotFound", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockUserRepo(t)
		userID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1`).
			WithArgs(userID).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), userID)

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserRepository_UpdatePlan(t *testing.T) {
	t.Parallel()

	t.Run("updates existing user", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockUserRepo(t)
		userID := uuid.New()
		mock.ExpectExec(`UPDATE users SET plan = \$2`).
			WithArgs(userID, model.PlanPremium).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdatePlan(context.Background(), userID, model.PlanPremium)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected means unknown user", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockUserRepo(t)
		userID := uuid.New()
		mock.ExpectExec(`UPDATE users SET plan = \$2`).
			WithArgs(userID, model.PlanPremium).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePlan(context.Background(), userID, model.PlanPremium)

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserRepository_EmailExists(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		email  string
		exists bool
	}{
		{"registered address", "existing@example.com", true},
		{"fresh address", "new@example.com", false},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo, mock := newMockUserRepo(t)
			mock.ExpectQuery(`SELECT EXISTS`).
				WithArgs(tc.email).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tc.exists))

			exists, err := repo.EmailExists(context.Background(), tc.email)

			require.NoError(t, err)
			assert.Equal(t, tc.exists, exists)
		})
	}
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	t.Parallel()

	repo, mock := newMockUserRepo(t)
	userID := uuid.New()

	mock.ExpectExec(`UPDATE users SET updated_at = NOW\(\) WHERE id = \$1`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateLastLogin(context.Background(), userID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
