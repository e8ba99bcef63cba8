// Package scanner decides which repository files are worth scanning and
// extracts utility class tokens from their contents.
package scanner

import "strings"

// excludedPathMarkers reject infrastructure, build output, vendored code and
// generic non-template source files. Matched as substrings against the
// lower-cased path, before the extension allow-list is consulted.
var excludedPathMarkers = []string{
	"node_modules",
	".git/",
	".svn/",
	".hg/",
	"bower_components",
	"vendor/",
	"dist/",
	"build/",
	".next",
	".nuxt",
	".output/",
	".svelte-kit",
	".astro/",
	"coverage/",
	"__pycache__",
	".cache",
	".idea",
	".vscode",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"composer.lock",
	".min.",
	".config.",
	".service.",
	".router.",
	".routes.",
}

// scannableExtensions is the suffix allow-list of template, component and
// general source files across common web stacks.
var scannableExtensions = []string{
	".html",
	".htm",
	".vue",
	".svelte",
	".astro",
	".jsx",
	".tsx",
	".js",
	".ts",
	".mjs",
	".cjs",
	".mdx",
	".php",
	".blade.php",
	".erb",
	".ejs",
	".hbs",
	".handlebars",
	".twig",
	".liquid",
	".njk",
	".pug",
	".haml",
	".slim",
	".cshtml",
	".razor",
	".heex",
	".leex",
	".templ",
}

// IsScannable reports whether a file path is worth scanning for class tokens.
// Pure and deterministic: exclusion markers win over the extension allow-list.
func IsScannable(path string) bool {
	lower := strings.ToLower(path)

	for _, marker := range excludedPathMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}

	for _, ext := range scannableExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}
