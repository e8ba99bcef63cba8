package storage

import (
	"context"
	"fmt"

	"github.com/tailrank/tailrank/internal/models"
	"gorm.io/gorm"
)

// ReplaceClassCounts deletes all class-count rows for a repository and
// inserts the new set in one transaction. Full replacement avoids stale
// entries for classes removed since the previous analysis. Inserts are
// batched to respect store parameter limits.
func (d *Database) ReplaceClassCounts(ctx context.Context, repoID int64, counts []models.ClassCount, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("repository_id = ?", repoID).
			Delete(&models.ClassCount{}).Error; err != nil {
			return fmt.Errorf("failed to delete prior class counts: %w", err)
		}
		if len(counts) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(counts, batchSize).Error; err != nil {
			return fmt.Errorf("failed to insert class counts: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace class counts for repository %d: %w", repoID, err)
	}
	return nil
}

// GetClassCounts returns all class counts for one repository, ordered by
// count descending with ties broken by first-seen order.
func (d *Database) GetClassCounts(ctx context.Context, repoID int64) ([]models.ClassCount, error) {
	var counts []models.ClassCount
	err := d.db.WithContext(ctx).
		Where("repository_id = ?", repoID).
		Order("count DESC, first_seen_order ASC").
		Find(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get class counts: %w", err)
	}
	return counts, nil
}
