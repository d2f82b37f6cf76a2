package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/beta-access-portal/internal/model"
)

// ContentRepo persists the singleton site-content record.
type ContentRepo struct{ DB *sql.DB }

func NewContentRepo(db *sql.DB) *ContentRepo { return &ContentRepo{DB: db} }

// Get returns the singleton row, or ErrNotFound before EnsureDefault ran.
func (r *ContentRepo) Get(ctx context.Context) (model.SiteContent, error) {
	var c model.SiteContent
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,hero_title,hero_subtitle,release_date FROM site_content WHERE id=? LIMIT 1",
		model.DefaultSiteContent.ID).Scan(&c.ID, &c.HeroTitle, &c.HeroSubtitle, &c.ReleaseDate)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

// Upsert writes the singleton row, creating it if missing.
func (r *ContentRepo) Upsert(ctx context.Context, c *model.SiteContent) error {
	c.ID = model.DefaultSiteContent.ID
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO site_content (id, hero_title, hero_subtitle, release_date) VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE hero_title=VALUES(hero_title), hero_subtitle=VALUES(hero_subtitle), release_date=VALUES(release_date)`,
		c.ID, c.HeroTitle, c.HeroSubtitle, c.ReleaseDate)
	if err != nil {
		return fmt.Errorf("upsert site content: %w", err)
	}
	return nil
}

// EnsureDefault seeds the singleton on first startup. Existing copy is
// never overwritten.
func (r *ContentRepo) EnsureDefault(ctx context.Context) error {
	if _, err := r.Get(ctx); err == nil {
		return nil
	} else if err != ErrNotFound {
		return err
	}
	c := model.DefaultSiteContent
	_, err := r.DB.ExecContext(ctx,
		`INSERT IGNORE INTO site_content (id, hero_title, hero_subtitle, release_date) VALUES (?,?,?,?)`,
		c.ID, c.HeroTitle, c.HeroSubtitle, c.ReleaseDate)
	return err
}
