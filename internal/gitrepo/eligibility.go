package gitrepo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const (
	manifestFileName = "package.json"

	// frameworkPackage is the dependency that makes a repository eligible,
	// matched by exact name or scoped variant (@tailwindcss/...).
	frameworkPackage     = "tailwindcss"
	frameworkScopePrefix = "@tailwindcss/"
)

// Eligibility is the outcome of the manifest check at the snapshot root.
type Eligibility struct {
	Eligible        bool
	ManifestExists  bool
	HasFrameworkDep bool
	// Reason is populated on ineligibility, for caller display.
	Reason string
}

// checkEligibility reads package.json at the snapshot root. A repository is
// eligible iff the manifest parses and declares tailwindcss as a direct or
// dev dependency.
func checkEligibility(root string) Eligibility {
	data, err := os.ReadFile(filepath.Join(root, manifestFileName))
	if err != nil {
		return Eligibility{
			Reason: "no package.json found at repository root",
		}
	}

	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Eligibility{
			ManifestExists: true,
			Reason:         "package.json could not be parsed",
		}
	}

	if hasFrameworkDep(manifest.Dependencies) || hasFrameworkDep(manifest.DevDependencies) {
		return Eligibility{
			Eligible:        true,
			ManifestExists:  true,
			HasFrameworkDep: true,
		}
	}

	return Eligibility{
		ManifestExists: true,
		Reason:         "no framework dependency found in package.json",
	}
}

func hasFrameworkDep(deps map[string]string) bool {
	for name := range deps {
		if name == frameworkPackage || strings.HasPrefix(name, frameworkScopePrefix) {
			return true
		}
	}
	return false
}
