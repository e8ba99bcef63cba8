package storage

import (
	"context"
	"time"

	"github.com/tailrank/tailrank/internal/models"
)

// RepositoryReader defines read operations for repositories.
// This interface enables dependency injection and easier testing.
type RepositoryReader interface {
	// GetRepositoryByURL retrieves a single repository by canonical URL.
	GetRepositoryByURL(ctx context.Context, url string) (*models.Repository, error)
	// GetRepositoryByID retrieves a single repository by ID.
	GetRepositoryByID(ctx context.Context, id int64) (*models.Repository, error)
	// ListRecentRepositories returns the most recently updated repositories.
	ListRecentRepositories(ctx context.Context, limit int) ([]*models.Repository, error)
}

// RepositoryWriter defines write operations for repositories.
type RepositoryWriter interface {
	// CreateRepository inserts a new repository record.
	CreateRepository(ctx context.Context, repo *models.Repository) error
	// UpdateRepositoryFields updates a subset of columns on a repository.
	UpdateRepositoryFields(ctx context.Context, id int64, fields map[string]any) error
	// AcquireProcessingLock atomically transitions a repository into the
	// processing state. Returns false when another run already holds it.
	AcquireProcessingLock(ctx context.Context, id int64, startedAt time.Time) (bool, error)
	// ReclaimStaleLock marks a repository failed if its processing run
	// started at or before the cutoff. Returns true when reclaimed.
	ReclaimStaleLock(ctx context.Context, id int64, cutoff time.Time) (bool, error)
	// ReleaseLockAsFailed transitions a processing repository to failed.
	ReleaseLockAsFailed(ctx context.Context, id int64) error
}

// RepositoryStore combines read and write operations for repositories.
type RepositoryStore interface {
	RepositoryReader
	RepositoryWriter
}

// ClassCountStore defines operations for per-repository class counts.
type ClassCountStore interface {
	// ReplaceClassCounts atomically replaces all counts for a repository.
	ReplaceClassCounts(ctx context.Context, repoID int64, counts []models.ClassCount, batchSize int) error
	// GetClassCounts retrieves counts for a repository, most frequent first.
	GetClassCounts(ctx context.Context, repoID int64) ([]models.ClassCount, error)
}

// StatsStore defines cross-repository analytics queries.
type StatsStore interface {
	// GetTopClasses returns the globally most frequent class names.
	GetTopClasses(ctx context.Context, limit int) ([]models.ClassStat, error)
	// GetGlobalStats returns summary statistics across completed analyses.
	GetGlobalStats(ctx context.Context) (*models.GlobalStats, error)
	// GetLongestClassName returns the single longest recorded class token.
	GetLongestClassName(ctx context.Context) (*models.LongestClass, error)
}

// Store combines all storage operations.
type Store interface {
	RepositoryStore
	ClassCountStore
	StatsStore
}

// Compile-time checks that Database implements the storage interfaces.
var (
	_ RepositoryStore = (*Database)(nil)
	_ ClassCountStore = (*Database)(nil)
	_ StatsStore      = (*Database)(nil)
	_ Store           = (*Database)(nil)
)
