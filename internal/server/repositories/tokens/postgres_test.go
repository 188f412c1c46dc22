package tokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avorobjovs/tunepin/internal/common"
	"github.com/avorobjovs/tunepin/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+user_tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*$`

	expires := time.Now().Add(15 * time.Minute)
	mock.ExpectExec(q).
		WithArgs("t1", "u1", models.KindAccess, "tok123", expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Token{
		ID: "t1", UserID: "u1", Kind: models.KindAccess, Value: "tok123", Expires: expires,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+user_tokens\b`

	mock.ExpectExec(q).
		WithArgs("t1", "u1", models.KindAccess, "tok123", sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.Token{
		ID: "t1", UserID: "u1", Kind: models.KindAccess, Value: "tok123", Expires: time.Now(),
	})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFind_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*kind,\s*token,\s*expires_at\s+FROM\s+user_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`

	expires := time.Now().Add(10 * time.Minute)
	rows := sqlmock.NewRows([]string{"id", "user_id", "kind", "token", "expires_at"}).
		AddRow("t1", "u1", "refresh", "tok123", expires)

	mock.ExpectQuery(q).
		WithArgs("tok123").
		WillReturnRows(rows)

	got, err := repo.Find(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "u1" || got.Kind != models.KindRefresh || !got.Expires.Equal(expires) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*kind,\s*token,\s*expires_at\s+FROM\s+user_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestLatestValid_PicksFurthestExpiration(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*kind,\s*token,\s*expires_at\s+FROM\s+user_tokens\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+kind\s*=\s*\$2\s+AND\s+expires_at\s*>\s*\$3\s+ORDER\s+BY\s+expires_at\s+DESC\s+LIMIT\s+1\s*$`

	now := time.Now()
	expires := now.Add(2 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "kind", "token", "expires_at"}).
		AddRow("t2", "u1", "refresh", "newest", expires)

	mock.ExpectQuery(q).
		WithArgs("u1", models.KindRefresh, now).
		WillReturnRows(rows)

	got, err := repo.LatestValid(context.Background(), "u1", models.KindRefresh, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != "newest" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestLatestValid_NoneValid(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*kind,\s*token,\s*expires_at\s+FROM\s+user_tokens\b`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("u1", models.KindAccess, now).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LatestValid(context.Background(), "u1", models.KindAccess, now)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestExpire_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+user_tokens\s+SET\s+expires_at\s*=\s*\$2\s+WHERE\s+token\s*=\s*\$1\s*$`

	at := time.Now().Add(-time.Second)
	mock.ExpectExec(q).
		WithArgs("tok123", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Expire(context.Background(), "tok123", at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExpire_NoRowIsNoop(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+user_tokens\s+SET\s+expires_at\s*=\s*\$2\s+WHERE\s+token\s*=\s*\$1\s*$`

	at := time.Now().Add(-time.Second)
	mock.ExpectExec(q).
		WithArgs("gone", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Expire(context.Background(), "gone", at); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestExpire_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+user_tokens\b`

	mock.ExpectExec(q).
		WithArgs("tok123", sqlmock.AnyArg()).
		WillReturnError(errors.New("db err"))

	err := repo.Expire(context.Background(), "tok123", time.Now())
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
