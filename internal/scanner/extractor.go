package scanner

import (
	"regexp"
	"strings"
)

// Pattern notes: RE2 has no recursion, so brace and parenthesis groups are
// unrolled to tolerate two levels of nesting without mis-terminating.
var (
	// class="..." / className='...' with a quoted literal value.
	attrQuotedRe = regexp.MustCompile(`(?:className|class)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

	// className={...} with a brace-delimited dynamic expression.
	attrExprRe = regexp.MustCompile(`(?:className|class)\s*=\s*(\{(?:[^{}]|\{(?:[^{}]|\{[^{}]*\})*\})*\})`)

	// Any quoted substring (double, single or backtick) inside an expression.
	quotedStringRe = regexp.MustCompile("\"([^\"]*)\"|'([^']*)'|`([^`]*)`")

	// Calls to recognized class-builder helpers, whole call text captured.
	builderCallRe = regexp.MustCompile(`\b(?:classNames|classnames|clsx|cls|cva|cx|cn|twMerge|twJoin)\s*\((?:[^()]|\((?:[^()]|\([^()]*\))*\))*\)`)
)

// ExtractClasses returns every class token found in text, in encounter order,
// not deduplicated. Two independent passes run over the same text: attribute
// declarations (class= / className=) and class-builder function calls. Tokens
// are whitespace-delimited substrings of matched quotes; no validation against
// any canonical class list is performed, so dynamic expressions may contribute
// non-class strings. That over-inclusion is accepted.
func ExtractClasses(text string) []string {
	var tokens []string

	for _, m := range attrQuotedRe.FindAllStringSubmatch(text, -1) {
		literal := m[1]
		if literal == "" {
			literal = m[2]
		}
		tokens = appendTokens(tokens, literal)
	}

	for _, m := range attrExprRe.FindAllStringSubmatch(text, -1) {
		tokens = append(tokens, extractQuotedTokens(m[1])...)
	}

	for _, call := range builderCallRe.FindAllString(text, -1) {
		tokens = append(tokens, extractQuotedTokens(call)...)
	}

	return tokens
}

// extractQuotedTokens pulls every quoted substring out of expr and tokenizes
// each on whitespace.
func extractQuotedTokens(expr string) []string {
	var tokens []string
	for _, m := range quotedStringRe.FindAllStringSubmatch(expr, -1) {
		for _, group := range m[1:] {
			if group != "" {
				tokens = appendTokens(tokens, group)
			}
		}
	}
	return tokens
}

// appendTokens splits value on whitespace and appends the trimmed, non-empty
// tokens.
func appendTokens(tokens []string, value string) []string {
	for _, tok := range strings.Fields(value) {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// File pairs a repository-relative path with its text content.
type File struct {
	Path    string
	Content string
}

// Tally accumulates class token counts while preserving the order each token
// was first seen. That order is the deterministic tie-break for equal counts
// in top-N listings.
type Tally struct {
	counts map[string]int
	order  []string
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Add records one occurrence of token.
func (t *Tally) Add(token string) {
	if _, seen := t.counts[token]; !seen {
		t.order = append(t.order, token)
	}
	t.counts[token]++
}

// AddAll records every token in the slice.
func (t *Tally) AddAll(tokens []string) {
	for _, tok := range tokens {
		t.Add(tok)
	}
}

// Counts returns the class name to count mapping. The returned map is the
// tally's own; callers must not mutate it.
func (t *Tally) Counts() map[string]int { return t.counts }

// Order returns class names in first-seen order.
func (t *Tally) Order() []string { return t.order }

// Total returns the sum of all counts.
func (t *Tally) Total() int {
	total := 0
	for _, c := range t.counts {
		total += c
	}
	return total
}

// Len returns the number of distinct class names.
func (t *Tally) Len() int { return len(t.order) }

// CountOccurrences tallies class tokens across all scannable files. Files
// rejected by IsScannable are skipped entirely, re-checked here even when the
// caller pre-filtered.
func CountOccurrences(files []File) *Tally {
	tally := NewTally()
	for _, f := range files {
		if !IsScannable(f.Path) {
			continue
		}
		tally.AddAll(ExtractClasses(f.Content))
	}
	return tally
}
