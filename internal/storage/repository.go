package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tailrank/tailrank/internal/models"
	"gorm.io/gorm"
)

// CreateRepository inserts a new repository record. The URL carries a unique
// index, so concurrent creators for the same URL race benignly: exactly one
// insert succeeds and the loser re-fetches.
func (d *Database) CreateRepository(ctx context.Context, repo *models.Repository) error {
	if repo.Status == "" {
		repo.Status = string(models.StatusPending)
	}
	if err := d.db.WithContext(ctx).Create(repo).Error; err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	return nil
}

// GetRepositoryByURL retrieves a repository by its canonical URL. Returns
// (nil, nil) when no record exists.
func (d *Database) GetRepositoryByURL(ctx context.Context, url string) (*models.Repository, error) {
	var repo models.Repository
	err := d.db.WithContext(ctx).Where("url = ?", url).First(&repo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repository by url: %w", err)
	}
	return &repo, nil
}

// GetRepositoryByID retrieves a repository by primary key. Returns (nil, nil)
// when no record exists.
func (d *Database) GetRepositoryByID(ctx context.Context, id int64) (*models.Repository, error) {
	var repo models.Repository
	err := d.db.WithContext(ctx).First(&repo, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repository by id: %w", err)
	}
	return &repo, nil
}

// UpdateRepositoryFields applies a partial field set to one repository row.
// A map is used instead of a struct so zero values (false, 0, nil) are
// written rather than skipped.
func (d *Database) UpdateRepositoryFields(ctx context.Context, id int64, fields map[string]any) error {
	result := d.db.WithContext(ctx).Model(&models.Repository{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update repository %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("repository %d not found", id)
	}
	return nil
}

// AcquireProcessingLock attempts the atomic transition into processing. The
// conditional UPDATE is the single point of mutual exclusion: of any number
// of concurrent callers for the same row, at most one observes an affected
// row. Rows already in processing are never taken over here; stale leases
// must first be released via ReclaimStaleLock.
func (d *Database) AcquireProcessingLock(ctx context.Context, id int64, startedAt time.Time) (bool, error) {
	result := d.db.WithContext(ctx).Model(&models.Repository{}).
		Where("id = ? AND status <> ?", id, string(models.StatusProcessing)).
		Updates(map[string]any{
			"status":                string(models.StatusProcessing),
			"processing_started_at": startedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to acquire processing lock: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ReclaimStaleLock marks an abandoned processing record as failed so it can
// be re-locked. Only leases started at or before cutoff are reclaimed; the
// conditional UPDATE keeps concurrent reclaimers from both succeeding.
func (d *Database) ReclaimStaleLock(ctx context.Context, id int64, cutoff time.Time) (bool, error) {
	result := d.db.WithContext(ctx).Model(&models.Repository{}).
		Where("id = ? AND status = ? AND processing_started_at <= ?",
			id, string(models.StatusProcessing), cutoff).
		Updates(map[string]any{
			"status":                string(models.StatusFailed),
			"processing_started_at": nil,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to reclaim stale lock: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ReleaseLockAsFailed clears the processing lease and marks the run failed.
// Used on any unhandled failure after the lock was acquired.
func (d *Database) ReleaseLockAsFailed(ctx context.Context, id int64) error {
	return d.UpdateRepositoryFields(ctx, id, map[string]any{
		"status":                string(models.StatusFailed),
		"processing_started_at": nil,
	})
}

// ListRecentRepositories returns the most recently updated repositories.
func (d *Database) ListRecentRepositories(ctx context.Context, limit int) ([]*models.Repository, error) {
	if limit <= 0 {
		limit = 50
	}
	var repos []*models.Repository
	err := d.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).
		Find(&repos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	return repos, nil
}
