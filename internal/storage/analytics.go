package storage

import (
	"context"
	"fmt"

	"github.com/tailrank/tailrank/internal/models"
)

// GetTopClasses returns the globally most frequent class names, summed across
// all repositories. Ties are broken by class name ascending so the listing is
// deterministic regardless of store row order.
func (d *Database) GetTopClasses(ctx context.Context, limit int) ([]models.ClassStat, error) {
	if limit <= 0 {
		limit = 10
	}

	type classTotal struct {
		ClassName string
		Total     int
	}

	// Built through the query builder so LIMIT/TOP renders per dialect.
	var rows []classTotal
	err := d.db.WithContext(ctx).
		Table("class_counts").
		Select("class_name, SUM(count) AS total").
		Group("class_name").
		Order("total DESC, class_name ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top classes: %w", err)
	}

	stats := make([]models.ClassStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, models.ClassStat{ClassName: row.ClassName, Count: row.Total})
	}
	return stats, nil
}

// GetGlobalStats returns summary statistics across all completed analyses.
func (d *Database) GetGlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	type repoTotals struct {
		Repos     int
		Instances int
		Files     int
	}

	var totals repoTotals
	err := d.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) AS repos,
		            COALESCE(SUM(total_class_instances), 0) AS instances,
		            COALESCE(SUM(total_files), 0) AS files
		     FROM repositories
		     WHERE status = ?`, string(models.StatusCompleted)).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get repository totals: %w", err)
	}

	var uniqueClasses int
	err = d.db.WithContext(ctx).
		Raw(`SELECT COUNT(DISTINCT class_name) FROM class_counts`).
		Scan(&uniqueClasses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count unique classes: %w", err)
	}

	return &models.GlobalStats{
		TotalRepositories:   totals.Repos,
		TotalClassInstances: totals.Instances,
		UniqueClassCount:    uniqueClasses,
		TotalFilesScanned:   totals.Files,
	}, nil
}

// GetLongestClassName returns the single longest class token ever recorded
// with its owning repository. Returns (nil, nil) when no counts exist.
func (d *Database) GetLongestClassName(ctx context.Context) (*models.LongestClass, error) {
	type longestRow struct {
		ClassName string
		URL       string
		Owner     string
		Name      string
	}

	lengthExpr := d.dialect.StringLength("cc.class_name")

	var rows []longestRow
	err := d.db.WithContext(ctx).
		Table("class_counts cc").
		Select("cc.class_name, r.url, r.owner, r.name").
		Joins("JOIN repositories r ON r.id = cc.repository_id").
		Order(lengthExpr + " DESC, cc.class_name ASC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get longest class name: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	return &models.LongestClass{
		ClassName:      row.ClassName,
		Length:         len(row.ClassName),
		RepositoryURL:  row.URL,
		RepositoryName: row.Owner + "/" + row.Name,
	}, nil
}
