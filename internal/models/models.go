package models

import "time"

// Repository is the persistent record for an analyzed GitHub repository.
// One row exists per canonical repository URL; re-analysis mutates the same
// row rather than inserting a new one.
type Repository struct {
	ID    int64  `json:"id" gorm:"primaryKey"`
	URL   string `json:"url" gorm:"uniqueIndex;size:512;not null"`
	Owner string `json:"owner" gorm:"size:100;not null"`
	Name  string `json:"name" gorm:"size:200;not null"`

	// DefaultBranch is resolved lazily on first acquisition.
	DefaultBranch *string `json:"default_branch,omitempty" gorm:"size:200"`

	Status string `json:"status" gorm:"size:20;not null;default:pending;index"`

	// Eligibility outcome from the manifest check. All nil until the first
	// acquisition completes.
	IsEligible        *bool   `json:"is_eligible,omitempty"`
	HasTailwind       *bool   `json:"has_framework_dependency,omitempty"`
	HasPackageJSON    *bool   `json:"has_manifest_file,omitempty"`
	EligibilityReason *string `json:"eligibility_reason,omitempty" gorm:"size:500"`

	// Progress counters, nil until known for the current analysis.
	TotalFiles     *int `json:"total_files,omitempty"`
	ProcessedFiles *int `json:"processed_files,omitempty"`

	// TotalClassInstances is the sum of all class-count rows at last analysis.
	TotalClassInstances *int `json:"total_class_instances,omitempty"`

	LastAnalyzedAt *time.Time `json:"last_analyzed_at,omitempty"`

	// ProcessingStartedAt is non-nil exactly while Status is "processing".
	// It doubles as the lease timestamp for stale-lock reclamation.
	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Repository
func (Repository) TableName() string { return "repositories" }

// FullName returns the owner/name form of the repository.
func (r *Repository) FullName() string { return r.Owner + "/" + r.Name }

// ClassCount stores the occurrence count of one class token within one
// repository. Rows are deleted and fully reinserted on every re-analysis so
// removed classes never linger.
type ClassCount struct {
	ID           int64  `json:"id" gorm:"primaryKey"`
	RepositoryID int64  `json:"repository_id" gorm:"not null;uniqueIndex:idx_class_counts_repo_class,priority:1"`
	ClassName    string `json:"class_name" gorm:"size:500;not null;uniqueIndex:idx_class_counts_repo_class,priority:2;index"`
	Count        int    `json:"count" gorm:"not null;default:0"`

	// FirstSeenOrder preserves the order tokens were first encountered during
	// extraction, used as the deterministic tie-break for equal counts.
	FirstSeenOrder int `json:"first_seen_order" gorm:"not null;default:0"`

	Repository Repository `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName specifies the table name for ClassCount
func (ClassCount) TableName() string { return "class_counts" }

// ClassStat is one entry in a top-classes listing.
type ClassStat struct {
	ClassName string `json:"class_name"`
	Count     int    `json:"count"`
}

// GlobalStats aggregates analysis results across all repositories.
type GlobalStats struct {
	TotalRepositories   int `json:"total_repositories"`
	TotalClassInstances int `json:"total_class_instances"`
	UniqueClassCount    int `json:"unique_class_count"`
	TotalFilesScanned   int `json:"total_files_scanned"`
}

// LongestClass is the single longest class token ever recorded, with the
// repository it was found in.
type LongestClass struct {
	ClassName      string `json:"class_name"`
	Length         int    `json:"length"`
	RepositoryURL  string `json:"repository_url"`
	RepositoryName string `json:"repository_name"`
}
