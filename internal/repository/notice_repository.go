package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/beta-access-portal/internal/model"
)

// NoticeRepo persists per-account notices.
type NoticeRepo struct{ DB *sql.DB }

func NewNoticeRepo(db *sql.DB) *NoticeRepo { return &NoticeRepo{DB: db} }

// Create inserts a notice and returns its id.
func (r *NoticeRepo) Create(ctx context.Context, n *model.Notice) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO notices (account_id, title, body, kind, is_read, linked_request_id, operator_comment, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		n.AccountID, n.Title, n.Body, n.Kind, n.Read, n.LinkedRequestID, n.OperatorComment, n.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert notice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const noticeCols = "id,account_id,title,body,kind,is_read,linked_request_id,operator_comment,created_at"

// ListByAccount returns every notice for an account, newest first.
// Unread-first ordering is left to the caller presenting the feed.
func (r *NoticeRepo) ListByAccount(ctx context.Context, accountID uint64) ([]model.Notice, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+noticeCols+" FROM notices WHERE account_id=? ORDER BY created_at DESC", accountID)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var out []model.Notice
	for rows.Next() {
		var n model.Notice
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Title, &n.Body, &n.Kind, &n.Read,
			&n.LinkedRequestID, &n.OperatorComment, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag. Marking an already-read notice is a
// no-op, not an error, so the call is idempotent.
func (r *NoticeRepo) MarkRead(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE notices SET is_read=1 WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("mark notice read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists uint64
		err := r.DB.QueryRowContext(ctx, "SELECT id FROM notices WHERE id=? LIMIT 1", id).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// CountUnread returns the number of unread notices for an account.
func (r *NoticeRepo) CountUnread(ctx context.Context, accountID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notices WHERE account_id=? AND is_read=0", accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}
