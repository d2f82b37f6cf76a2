package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/beta-access-portal/internal/model"
)

// RequestRepo persists access requests. The two variants live in
// parallel tables with a shared column prefix; the Variant enum picks
// the table, so no free-form store name ever reaches the SQL text.
type RequestRepo struct{ DB *sql.DB }

func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{DB: db} }

func table(v model.Variant) string {
	if v == model.VariantTeam {
		return "team_requests"
	}
	return "beta_requests"
}

// Create inserts a request row and returns its id.
func (r *RequestRepo) Create(ctx context.Context, req *model.AccessRequest) (uint64, error) {
	var (
		res sql.Result
		err error
	)
	switch req.Variant {
	case model.VariantTeam:
		res, err = r.DB.ExecContext(ctx,
			`INSERT INTO team_requests (account_id, email, first_name, last_name, role, years_experience, skills, motivation, portfolio, status, created_at)
			 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			req.AccountID, req.Email, req.FirstName, req.LastName, req.Role, req.YearsExperience,
			req.Skills, req.Motivation, req.Portfolio, req.Status, req.CreatedAt)
	default:
		res, err = r.DB.ExecContext(ctx,
			`INSERT INTO beta_requests (account_id, email, first_name, last_name, reason, status, created_at)
			 VALUES (?,?,?,?,?,?,?)`,
			req.AccountID, req.Email, req.FirstName, req.LastName, req.Reason, req.Status, req.CreatedAt)
	}
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table(req.Variant), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func cols(v model.Variant) string {
	if v == model.VariantTeam {
		return "id,account_id,email,first_name,last_name,role,years_experience,skills,motivation,portfolio,status,operator_comment,created_at,processed_at"
	}
	return "id,account_id,email,first_name,last_name,reason,status,operator_comment,created_at,processed_at"
}

type rowScanner interface{ Scan(dest ...any) error }

func scanRequest(v model.Variant, row rowScanner) (model.AccessRequest, error) {
	req := model.AccessRequest{Variant: v}
	var err error
	if v == model.VariantTeam {
		err = row.Scan(&req.ID, &req.AccountID, &req.Email, &req.FirstName, &req.LastName,
			&req.Role, &req.YearsExperience, &req.Skills, &req.Motivation, &req.Portfolio,
			&req.Status, &req.OperatorComment, &req.CreatedAt, &req.ProcessedAt)
	} else {
		err = row.Scan(&req.ID, &req.AccountID, &req.Email, &req.FirstName, &req.LastName,
			&req.Reason, &req.Status, &req.OperatorComment, &req.CreatedAt, &req.ProcessedAt)
	}
	if err == sql.ErrNoRows {
		return req, ErrNotFound
	}
	return req, err
}

// GetByID fetches one request of the given variant.
func (r *RequestRepo) GetByID(ctx context.Context, v model.Variant, id uint64) (model.AccessRequest, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+cols(v)+" FROM "+table(v)+" WHERE id=? LIMIT 1", id)
	return scanRequest(v, row)
}

func (r *RequestRepo) queryMany(ctx context.Context, v model.Variant, where string, args ...any) ([]model.AccessRequest, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+cols(v)+" FROM "+table(v)+where+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table(v), err)
	}
	defer rows.Close()

	var out []model.AccessRequest
	for rows.Next() {
		req, err := scanRequest(v, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// List returns every request of a variant, newest first.
func (r *RequestRepo) List(ctx context.Context, v model.Variant) ([]model.AccessRequest, error) {
	return r.queryMany(ctx, v, "")
}

// ListByStatus filters a variant's requests by workflow status.
func (r *RequestRepo) ListByStatus(ctx context.Context, v model.Variant, s model.Status) ([]model.AccessRequest, error) {
	return r.queryMany(ctx, v, " WHERE status=?", s)
}

// ListByAccount returns an account's requests of one variant.
func (r *RequestRepo) ListByAccount(ctx context.Context, v model.Variant, accountID uint64) ([]model.AccessRequest, error) {
	return r.queryMany(ctx, v, " WHERE account_id=?", accountID)
}

// Latest returns the most recent request of a variant for an account,
// regardless of its status. ErrNotFound means the account has never
// submitted this variant.
func (r *RequestRepo) Latest(ctx context.Context, v model.Variant, accountID uint64) (model.AccessRequest, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+cols(v)+" FROM "+table(v)+" WHERE account_id=? ORDER BY created_at DESC LIMIT 1", accountID)
	return scanRequest(v, row)
}

// UpdateDecision writes an operator action: status, comment and the
// processed_at stamp. The comment column is overwritten with whatever
// is passed, including NULL.
func (r *RequestRepo) UpdateDecision(ctx context.Context, req *model.AccessRequest) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE "+table(req.Variant)+" SET status=?, operator_comment=?, processed_at=? WHERE id=?",
		req.Status, req.OperatorComment, req.ProcessedAt, req.ID)
	if err != nil {
		return fmt.Errorf("update %s: %w", table(req.Variant), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, req.Variant, req.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete hard-deletes a request. Notices linked to it are left in
// place; they only reference the id.
func (r *RequestRepo) Delete(ctx context.Context, v model.Variant, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM "+table(v)+" WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table(v), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
