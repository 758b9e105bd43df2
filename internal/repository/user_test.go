package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/user/bookify/internal/model"
)

func TestUserCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`INSERT INTO "users" .* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	user, err := repo.Create("张三", "z@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, "user", user.Role)
	// 口令只存哈希
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`INSERT INTO "users" .* RETURNING "id"`).
		WillReturnError(gorm.ErrDuplicatedKey)

	_, err := repo.Create("张三", "taken@example.com", "secret123")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByEmailNotFoundReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1.*`).
		WithArgs("nobody@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.FindByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByGoogleID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "google_id", "avatar", "role", "created_at"}).
		AddRow(2, "李四", "l@example.com", "", "google-uid-1", "", "user", time.Now())

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE google_id = \$1.*`).
		WithArgs("google-uid-1", 1).
		WillReturnRows(rows)

	user, err := repo.FindByGoogleID("google-uid-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 2, user.ID)
	assert.False(t, user.HasPassword())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckPassword(t *testing.T) {
	repo := NewUserRepository(nil)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &model.User{PasswordHash: string(hash)}

	assert.True(t, repo.CheckPassword(user, "correct-horse"))
	assert.False(t, repo.CheckPassword(user, "wrong"))
	// 纯 Google 账号没有口令，任何输入都不通过
	assert.False(t, repo.CheckPassword(&model.User{}, ""))
}

func TestLinkGoogleIDOnlyWhenUnlinked(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "google_id"=$1 WHERE id = $2 AND (google_id = '' OR google_id IS NULL)`)).
		WithArgs("google-uid-9", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.LinkGoogleID(5, "google-uid-9"))
	require.NoError(t, mock.ExpectationsWereMet())
}
