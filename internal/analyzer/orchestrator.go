package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tailrank/tailrank/internal/gitrepo"
	"github.com/tailrank/tailrank/internal/models"
	"github.com/tailrank/tailrank/internal/scanner"
)

// ErrAlreadyProcessing indicates another run currently holds the processing
// lease for the same repository URL. Callers may retry later.
var ErrAlreadyProcessing = fmt.Errorf("repository is already being processed")

// Store is the persistence surface the orchestrator depends on.
// *storage.Database satisfies it.
type Store interface {
	GetRepositoryByURL(ctx context.Context, url string) (*models.Repository, error)
	CreateRepository(ctx context.Context, repo *models.Repository) error
	UpdateRepositoryFields(ctx context.Context, id int64, fields map[string]any) error
	AcquireProcessingLock(ctx context.Context, id int64, startedAt time.Time) (bool, error)
	ReclaimStaleLock(ctx context.Context, id int64, cutoff time.Time) (bool, error)
	ReleaseLockAsFailed(ctx context.Context, id int64) error
	ReplaceClassCounts(ctx context.Context, repoID int64, counts []models.ClassCount, batchSize int) error
	GetClassCounts(ctx context.Context, repoID int64) ([]models.ClassCount, error)
}

// Snapshot is a local working copy of one repository at one point in time.
type Snapshot interface {
	Branch() string
	Eligibility() gitrepo.Eligibility
	ListFiles() []gitrepo.FileInfo
	ReadFile(relPath string) (string, bool)
	Cleanup()
}

// Acquirer produces repository snapshots.
type Acquirer interface {
	Acquire(ctx context.Context, owner, name, branch string) (Snapshot, error)
}

// GitAcquirer adapts *gitrepo.Acquirer to the Acquirer interface.
type GitAcquirer struct {
	inner *gitrepo.Acquirer
}

// NewGitAcquirer wraps a git-backed acquirer.
func NewGitAcquirer(a *gitrepo.Acquirer) *GitAcquirer {
	return &GitAcquirer{inner: a}
}

// Acquire clones the repository and returns its snapshot.
func (g *GitAcquirer) Acquire(ctx context.Context, owner, name, branch string) (Snapshot, error) {
	snap, err := g.inner.Acquire(ctx, owner, name, branch)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Options tunes the orchestrator's time windows and batch sizes.
type Options struct {
	// CacheFreshness is how long a completed analysis is served from the
	// store without re-acquisition.
	CacheFreshness time.Duration
	// LockStaleness is how old a processing lease must be before it is
	// presumed abandoned and reclaimable.
	LockStaleness time.Duration
	// InsertBatchSize bounds class-count insert statements.
	InsertBatchSize int
	// TopClassCount is the number of classes in the completed payload's
	// leaderboard slice.
	TopClassCount int
}

func (o *Options) applyDefaults() {
	if o.CacheFreshness <= 0 {
		o.CacheFreshness = 48 * time.Hour
	}
	if o.LockStaleness <= 0 {
		o.LockStaleness = 10 * time.Minute
	}
	if o.InsertBatchSize <= 0 {
		o.InsertBatchSize = 100
	}
	if o.TopClassCount <= 0 {
		o.TopClassCount = 10
	}
}

// Analyzer coordinates one full analysis run per invocation: reference
// normalization, cache lookup, lock acquisition, clone, scan, persistence
// and event emission. It holds no per-run state; concurrent runs for
// different URLs share nothing but the store.
type Analyzer struct {
	store    Store
	acquirer Acquirer
	logger   *slog.Logger
	opts     Options
}

// New creates an Analyzer.
func New(store Store, acquirer Acquirer, logger *slog.Logger, opts Options) *Analyzer {
	opts.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		store:    store,
		acquirer: acquirer,
		logger:   logger,
		opts:     opts,
	}
}

// Run starts an analysis for the given repository reference and returns the
// event stream. The stream carries exactly one terminal event (completed or
// error) and is then closed. Cancelling ctx stops delivery to the caller but
// does not abort the run itself: once the processing lease is taken the run
// finishes (or fails) on its own so the lease is always resolved.
func (a *Analyzer) Run(ctx context.Context, ref string) <-chan Event {
	runID := uuid.New().String()
	em := newEmitter(ctx, runID)

	go func() {
		defer em.close()
		a.execute(context.WithoutCancel(ctx), em, ref)
	}()

	return em.events()
}

func (a *Analyzer) execute(ctx context.Context, em *emitter, rawRef string) {
	ref, err := NormalizeReference(rawRef)
	if err != nil {
		em.fail(err.Error())
		return
	}

	log := a.logger.With("run_id", em.runID, "repository", ref.Owner+"/"+ref.Name)

	repo, err := a.store.GetRepositoryByURL(ctx, ref.URL)
	if err != nil {
		log.Error("Repository lookup failed", "error", err)
		em.fail("store lookup failed")
		return
	}

	now := time.Now().UTC()

	// Fast path: fresh completed analysis, served straight from the store.
	if repo != nil && repo.Status == string(models.StatusCompleted) &&
		repo.LastAnalyzedAt != nil && now.Sub(*repo.LastAnalyzedAt) < a.opts.CacheFreshness {
		a.serveCached(ctx, em, log, repo)
		return
	}

	if repo != nil && repo.Status == string(models.StatusProcessing) {
		if repo.ProcessingStartedAt == nil || now.Sub(*repo.ProcessingStartedAt) < a.opts.LockStaleness {
			em.fail(ErrAlreadyProcessing.Error())
			return
		}
		// Lease looks abandoned. Reclaim it; losing the reclaim race means
		// another request got there first and now owns the row.
		cutoff := now.Add(-a.opts.LockStaleness)
		reclaimed, err := a.store.ReclaimStaleLock(ctx, repo.ID, cutoff)
		if err != nil {
			log.Error("Stale lock reclamation failed", "error", err)
			em.fail("store update failed")
			return
		}
		if !reclaimed {
			em.fail(ErrAlreadyProcessing.Error())
			return
		}
		log.Info("Reclaimed stale processing lease", "started_at", repo.ProcessingStartedAt)
	}

	if repo == nil {
		repo = &models.Repository{
			URL:    ref.URL,
			Owner:  ref.Owner,
			Name:   ref.Name,
			Status: string(models.StatusPending),
		}
		if err := a.store.CreateRepository(ctx, repo); err != nil {
			// Unique-index race with a concurrent first request. Re-fetch, the
			// winner's row is authoritative.
			repo, err = a.store.GetRepositoryByURL(ctx, ref.URL)
			if err != nil || repo == nil {
				log.Error("Repository creation failed", "error", err)
				em.fail("store insert failed")
				return
			}
		}
	}

	acquired, err := a.store.AcquireProcessingLock(ctx, repo.ID, now)
	if err != nil {
		log.Error("Lock acquisition failed", "error", err)
		em.fail("store update failed")
		return
	}
	if !acquired {
		em.fail(ErrAlreadyProcessing.Error())
		return
	}

	// Past this point the lease is ours: every exit must resolve it. The
	// terminal status writers below flip resolved themselves; anything else
	// falls through to the failed release.
	resolved := false
	defer func() {
		if resolved {
			return
		}
		if err := a.store.ReleaseLockAsFailed(ctx, repo.ID); err != nil {
			log.Error("Failed to release processing lease", "error", err)
		}
	}()

	em.progress(StageFetching, "", 0, 0)

	snap, err := a.acquirer.Acquire(ctx, ref.Owner, ref.Name, "")
	if err != nil {
		log.Error("Repository acquisition failed", "error", err)
		em.fail(fmt.Sprintf("failed to acquire repository: %v", err))
		return
	}
	defer snap.Cleanup()

	elig := snap.Eligibility()
	branch := snap.Branch()

	if !elig.Eligible {
		err := a.store.UpdateRepositoryFields(ctx, repo.ID, map[string]any{
			"status":                string(models.StatusIneligible),
			"default_branch":        branch,
			"is_eligible":           false,
			"has_package_json":      elig.ManifestExists,
			"has_tailwind":          elig.HasFrameworkDep,
			"eligibility_reason":    elig.Reason,
			"processing_started_at": nil,
		})
		if err != nil {
			log.Error("Failed to persist ineligibility", "error", err)
			em.fail("store update failed")
			return
		}
		resolved = true
		log.Info("Repository is not eligible", "reason", elig.Reason)
		em.fail(elig.Reason)
		return
	}

	files := snap.ListFiles()
	scannable := files[:0]
	for _, f := range files {
		if scanner.IsScannable(f.Path) {
			scannable = append(scannable, f)
		}
	}
	totalFiles := len(scannable)

	err = a.store.UpdateRepositoryFields(ctx, repo.ID, map[string]any{
		"default_branch":   branch,
		"is_eligible":      true,
		"has_package_json": true,
		"has_tailwind":     true,
		"total_files":      totalFiles,
		"processed_files":  0,
	})
	if err != nil {
		log.Error("Failed to persist file inventory", "error", err)
		em.fail("store update failed")
		return
	}

	var buffer strings.Builder
	processed := 0
	for _, f := range scannable {
		em.progress(StageParsing, f.Path, processed, totalFiles)

		content, ok := snap.ReadFile(f.Path)
		if ok {
			buffer.WriteString(content)
			buffer.WriteByte('\n')
		} else {
			log.Warn("Skipping unreadable file", "path", f.Path)
		}

		processed++
		err := a.store.UpdateRepositoryFields(ctx, repo.ID, map[string]any{
			"processed_files": processed,
		})
		if err != nil {
			log.Error("Failed to persist file progress", "error", err)
			em.fail("store update failed")
			return
		}
		em.fileProcessed(f.Path, processed, totalFiles)
	}

	em.progress(StageAnalyzing, "", processed, totalFiles)
	tally := scanner.NewTally()
	tally.AddAll(scanner.ExtractClasses(buffer.String()))

	em.progress(StageSaving, "", processed, totalFiles)

	counts := tally.Counts()
	rows := make([]models.ClassCount, 0, tally.Len())
	for i, token := range tally.Order() {
		rows = append(rows, models.ClassCount{
			RepositoryID:   repo.ID,
			ClassName:      token,
			Count:          counts[token],
			FirstSeenOrder: i,
		})
	}
	if err := a.store.ReplaceClassCounts(ctx, repo.ID, rows, a.opts.InsertBatchSize); err != nil {
		log.Error("Failed to persist class counts", "error", err)
		em.fail("store update failed")
		return
	}

	completedAt := time.Now().UTC()
	err = a.store.UpdateRepositoryFields(ctx, repo.ID, map[string]any{
		"status":                string(models.StatusCompleted),
		"total_class_instances": tally.Total(),
		"last_analyzed_at":      completedAt,
		"processing_started_at": nil,
	})
	if err != nil {
		log.Error("Failed to persist completion", "error", err)
		em.fail("store update failed")
		return
	}
	resolved = true

	result := &Result{
		RepositoryURL:       ref.URL,
		Branch:              branch,
		TotalFiles:          totalFiles,
		TotalClassInstances: tally.Total(),
		UniqueClassCount:    tally.Len(),
		TopClasses:          topClasses(tally, a.opts.TopClassCount),
		Counts:              counts,
		FromCache:           false,
	}
	log.Info("Analysis completed",
		"files", totalFiles,
		"unique_classes", tally.Len(),
		"total_instances", tally.Total(),
		"duration", time.Since(now))
	em.completed(result)
}

// serveCached replays a fresh completed analysis from the store without any
// network or filesystem work.
func (a *Analyzer) serveCached(ctx context.Context, em *emitter, log *slog.Logger, repo *models.Repository) {
	rows, err := a.store.GetClassCounts(ctx, repo.ID)
	if err != nil {
		log.Error("Cached class counts lookup failed", "error", err)
		em.fail("store lookup failed")
		return
	}

	counts := make(map[string]int, len(rows))
	top := make([]ClassEntry, 0, min(len(rows), a.opts.TopClassCount))
	for _, row := range rows {
		counts[row.ClassName] = row.Count
		if len(top) < a.opts.TopClassCount {
			top = append(top, ClassEntry{ClassName: row.ClassName, Count: row.Count})
		}
	}

	result := &Result{
		RepositoryURL:    repo.URL,
		UniqueClassCount: len(rows),
		TopClasses:       top,
		Counts:           counts,
		FromCache:        true,
	}
	if repo.DefaultBranch != nil {
		result.Branch = *repo.DefaultBranch
	}
	if repo.TotalFiles != nil {
		result.TotalFiles = *repo.TotalFiles
	}
	if repo.TotalClassInstances != nil {
		result.TotalClassInstances = *repo.TotalClassInstances
	}

	log.Info("Serving cached analysis", "last_analyzed_at", repo.LastAnalyzedAt)
	em.completed(result)
}

// topClasses returns the n most frequent tokens. Equal counts keep their
// first-encountered order, which the stable sort preserves.
func topClasses(t *scanner.Tally, n int) []ClassEntry {
	counts := t.Counts()
	entries := make([]ClassEntry, 0, t.Len())
	for _, token := range t.Order() {
		entries = append(entries, ClassEntry{ClassName: token, Count: counts[token]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
