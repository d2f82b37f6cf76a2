package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/beta-access-portal/internal/model"
)

func newRequestMock(t *testing.T) (*RequestRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRequestRepo(db), mock
}

func betaCols() []string {
	return []string{"id", "account_id", "email", "first_name", "last_name",
		"reason", "status", "operator_comment", "created_at", "processed_at"}
}

func TestRequestCreatePicksVariantTable(t *testing.T) {
	repo, mock := newRequestMock(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO beta_requests").
		WithArgs(uint64(7), "user@example.com", "Анна", "Иванова", "хочу попробовать",
			model.StatusPending, now).
		WillReturnResult(sqlmock.NewResult(3, 1))

	id, err := repo.Create(context.Background(), &model.AccessRequest{
		Variant:   model.VariantBeta,
		AccountID: 7,
		Email:     "user@example.com",
		FirstName: "Анна",
		LastName:  "Иванова",
		Reason:    "хочу попробовать",
		Status:    model.StatusPending,
		CreatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)

	mock.ExpectExec("INSERT INTO team_requests").
		WithArgs(uint64(7), "user@example.com", "Анна", "Иванова", "Go developer", 5,
			"Go", "интересно", "", model.StatusPending, now).
		WillReturnResult(sqlmock.NewResult(4, 1))

	id, err = repo.Create(context.Background(), &model.AccessRequest{
		Variant:         model.VariantTeam,
		AccountID:       7,
		Email:           "user@example.com",
		FirstName:       "Анна",
		LastName:        "Иванова",
		Role:            "Go developer",
		YearsExperience: 5,
		Skills:          "Go",
		Motivation:      "интересно",
		Status:          model.StatusPending,
		CreatedAt:       now,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestLatestNotFound(t *testing.T) {
	repo, mock := newRequestMock(t)

	mock.ExpectQuery("SELECT (.+) FROM beta_requests WHERE account_id=\\? ORDER BY created_at DESC LIMIT 1").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(betaCols()))

	_, err := repo.Latest(context.Background(), model.VariantBeta, 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestListByStatus(t *testing.T) {
	repo, mock := newRequestMock(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(betaCols()).
		AddRow(1, 7, "user@example.com", "Анна", "Иванова", "хочу попробовать",
			"pending", nil, now, nil)
	mock.ExpectQuery("SELECT (.+) FROM beta_requests WHERE status=\\? ORDER BY created_at DESC").
		WithArgs(model.StatusPending).
		WillReturnRows(rows)

	reqs, err := repo.ListByStatus(context.Background(), model.VariantBeta, model.StatusPending)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, model.VariantBeta, reqs[0].Variant)
	assert.Equal(t, model.StatusPending, reqs[0].Status)
	assert.Nil(t, reqs[0].OperatorComment)
	assert.Nil(t, reqs[0].ProcessedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestUpdateDecision(t *testing.T) {
	repo, mock := newRequestMock(t)
	now := time.Now().UTC()
	comment := "одобрено"

	mock.ExpectExec("UPDATE team_requests SET status=\\?, operator_comment=\\?, processed_at=\\? WHERE id=\\?").
		WithArgs("approved", comment, now, uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateDecision(context.Background(), &model.AccessRequest{
		ID:              4,
		Variant:         model.VariantTeam,
		Status:          model.StatusApproved,
		OperatorComment: &comment,
		ProcessedAt:     &now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestDelete(t *testing.T) {
	repo, mock := newRequestMock(t)

	mock.ExpectExec("DELETE FROM beta_requests WHERE id=\\?").
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), model.VariantBeta, 3))

	mock.ExpectExec("DELETE FROM beta_requests WHERE id=\\?").
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), model.VariantBeta, 99), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
