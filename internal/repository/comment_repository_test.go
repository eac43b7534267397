package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgadmissions/enquiry-api/internal/models"
)

func newCommentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCommentRepositoryAppendAssignsID(t *testing.T) {
	db, mock, cleanup := newCommentMock(t)
	defer cleanup()
	repo := NewCommentRepository(db)

	mock.ExpectExec("INSERT INTO enquiry_comments").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	comment := &models.Comment{RecordKey: "APP-2025-1234", Text: "strong candidate", Author: "counselor1"}
	err := repo.Append(context.Background(), comment)
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
	assert.False(t, comment.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryListByRecordKey(t *testing.T) {
	db, mock, cleanup := newCommentMock(t)
	defer cleanup()
	repo := NewCommentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "record_key", "text", "author", "created_at"}).
		AddRow("c1", "APP-2025-1234", "call back tomorrow", "counselor1", time.Now().Add(-time.Hour)).
		AddRow("c2", "APP-2025-1234", "fees discussed", "counselor2", time.Now())
	mock.ExpectQuery("SELECT id, record_key, text, author, created_at").
		WithArgs("APP-2025-1234").
		WillReturnRows(rows)

	comments, err := repo.ListByRecordKey(context.Background(), "APP-2025-1234")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "call back tomorrow", comments[0].Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}
