// Package gitrepo acquires read-only local snapshots of GitHub repositories
// via shallow clones, and answers the manifest eligibility question for them.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

const defaultBranchFallback = "main"

// branchProbeOrder is tried in order when the remote's symbolic HEAD cannot
// be resolved.
var branchProbeOrder = []string{"main", "master", "develop", "trunk"}

// Config configures an Acquirer.
type Config struct {
	// BaseDir is where per-run snapshot directories are created.
	BaseDir string
	// Token optionally authenticates GitHub API calls (higher rate limits).
	Token string
	// ResolveTimeout bounds each branch resolution attempt.
	ResolveTimeout time.Duration
	// CloneTimeout bounds the shallow clone.
	CloneTimeout time.Duration
	Logger       *slog.Logger
}

// Acquirer produces repository snapshots. Safe for concurrent use; every
// acquisition gets its own uniquely named directory.
type Acquirer struct {
	baseDir        string
	gh             *gogithub.Client
	resolveTimeout time.Duration
	cloneTimeout   time.Duration
	logger         *slog.Logger
}

// NewAcquirer creates an Acquirer rooted at cfg.BaseDir.
func NewAcquirer(cfg Config) (*Acquirer, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(cfg.BaseDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = 30 * time.Second
	}
	if cfg.CloneTimeout <= 0 {
		cfg.CloneTimeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var gh *gogithub.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		gh = gogithub.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		gh = gogithub.NewClient(nil)
	}

	return &Acquirer{
		baseDir:        cfg.BaseDir,
		gh:             gh,
		resolveTimeout: cfg.ResolveTimeout,
		cloneTimeout:   cfg.CloneTimeout,
		logger:         cfg.Logger,
	}, nil
}

// Acquire resolves the branch to analyze (when not supplied), shallow-clones
// it into a fresh snapshot directory and runs the manifest eligibility check.
// The caller owns the returned snapshot and must call Cleanup exactly once.
func (a *Acquirer) Acquire(ctx context.Context, owner, name, branch string) (*Snapshot, error) {
	if branch == "" {
		branch = a.ResolveDefaultBranch(ctx, owner, name)
	}

	cloneURL := fmt.Sprintf("https://github.com/%s/%s.git", owner, name)
	dir := filepath.Join(a.baseDir, fmt.Sprintf("%s-%s-%d", owner, name, time.Now().UnixNano()))

	if err := a.clone(ctx, cloneURL, branch, dir); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	snap := &Snapshot{
		root:   dir,
		owner:  owner,
		name:   name,
		branch: branch,
		logger: a.logger,
	}
	snap.eligibility = checkEligibility(dir)

	return snap, nil
}

// ResolveDefaultBranch determines which branch to clone. It asks the GitHub
// API first, then the remote's symbolic HEAD via git, then probes common
// branch names, and finally falls back to a hardcoded default. Each remote
// attempt is bounded by the resolve timeout.
func (a *Acquirer) ResolveDefaultBranch(ctx context.Context, owner, name string) string {
	if branch := a.resolveViaAPI(ctx, owner, name); branch != "" {
		return branch
	}

	remote := fmt.Sprintf("https://github.com/%s/%s.git", owner, name)
	if branch := a.resolveSymbolicHEAD(ctx, remote); branch != "" {
		return branch
	}

	for _, candidate := range branchProbeOrder {
		if a.remoteBranchExists(ctx, remote, candidate) {
			return candidate
		}
	}

	a.logger.Warn("Could not resolve default branch, using fallback",
		"owner", owner, "repo", name, "fallback", defaultBranchFallback)
	return defaultBranchFallback
}

// resolveViaAPI fetches the default branch from the GitHub Repositories API.
func (a *Acquirer) resolveViaAPI(ctx context.Context, owner, name string) string {
	ctx, cancel := context.WithTimeout(ctx, a.resolveTimeout)
	defer cancel()

	repo, _, err := a.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		a.logger.Debug("GitHub API branch resolution failed",
			"owner", owner, "repo", name, "error", err)
		return ""
	}
	return repo.GetDefaultBranch()
}

// resolveSymbolicHEAD queries the remote's symbolic HEAD reference with
// git ls-remote and parses the "ref: refs/heads/<branch> HEAD" line.
func (a *Acquirer) resolveSymbolicHEAD(ctx context.Context, remote string) string {
	ctx, cancel := context.WithTimeout(ctx, a.resolveTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-remote", "--symref", remote, "HEAD")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		a.logger.Debug("Symbolic HEAD resolution failed", "remote", remote, "error", err)
		return ""
	}

	for line := range strings.Lines(stdout.String()) {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "ref: refs/heads/")
		if !ok {
			continue
		}
		// Line format: "ref: refs/heads/<branch>\tHEAD"
		if fields := strings.Fields(rest); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

// remoteBranchExists probes the remote for a single branch head.
func (a *Acquirer) remoteBranchExists(ctx context.Context, remote, branch string) bool {
	ctx, cancel := context.WithTimeout(ctx, a.resolveTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-remote", "--heads", remote, branch)
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(bytes.TrimSpace(output)) > 0
}

// clone performs a shallow single-branch clone bounded by the clone timeout.
func (a *Acquirer) clone(ctx context.Context, url, branch, dir string) error {
	ctx, cancel := context.WithTimeout(ctx, a.cloneTimeout)
	defer cancel()

	args := []string{"clone", "--depth", "1", "--single-branch", "--branch", branch, url, dir}
	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("clone timed out after %s: %s", a.cloneTimeout, url)
		}
		return fmt.Errorf("git clone failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	a.logger.Debug("Repository cloned",
		"url", url, "branch", branch, "duration", time.Since(start))
	return nil
}

// CleanupOrphans removes leftover snapshot directories from previous runs of
// the process. Called once at startup to bound disk usage.
func (a *Acquirer) CleanupOrphans() {
	entries, err := os.ReadDir(a.baseDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(a.baseDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			a.logger.Warn("Failed to remove orphaned snapshot", "path", path, "error", err)
		}
	}
}
