package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReference(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantName  string
		wantURL   string
	}{
		{
			name:      "shorthand",
			input:     "octocat/hello-world",
			wantOwner: "octocat",
			wantName:  "hello-world",
			wantURL:   "https://github.com/octocat/hello-world",
		},
		{
			name:      "full https url",
			input:     "https://github.com/octocat/hello-world",
			wantOwner: "octocat",
			wantName:  "hello-world",
			wantURL:   "https://github.com/octocat/hello-world",
		},
		{
			name:      "trailing slash",
			input:     "https://github.com/octocat/hello-world/",
			wantOwner: "octocat",
			wantName:  "hello-world",
			wantURL:   "https://github.com/octocat/hello-world",
		},
		{
			name:      "scheme-less host",
			input:     "github.com/octocat/hello-world",
			wantOwner: "octocat",
			wantName:  "hello-world",
			wantURL:   "https://github.com/octocat/hello-world",
		},
		{
			name:      "www host",
			input:     "https://www.github.com/octocat/hello-world",
			wantOwner: "octocat",
			wantName:  "hello-world",
			wantURL:   "https://github.com/octocat/hello-world",
		},
		{
			name:      "git suffix stripped",
			input:     "https://github.com/octocat/hello-world.git",
			wantOwner: "octocat",
			wantName:  "hello-world",
			wantURL:   "https://github.com/octocat/hello-world",
		},
		{
			name:      "dots and underscores in name",
			input:     "some_org/repo.name-v2",
			wantOwner: "some_org",
			wantName:  "repo.name-v2",
			wantURL:   "https://github.com/some_org/repo.name-v2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := NormalizeReference(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, ref.Owner)
			assert.Equal(t, tt.wantName, ref.Name)
			assert.Equal(t, tt.wantURL, ref.URL)
		})
	}
}

func TestNormalizeReferenceInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"bare name", "hello-world"},
		{"too many segments", "a/b/c"},
		{"wrong host", "https://gitlab.com/octocat/hello-world"},
		{"unsupported scheme", "ssh://github.com/octocat/hello-world"},
		{"invalid characters", "octo cat/hello world"},
		{"leading dot", "octocat/.hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeReference(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidReference)
		})
	}
}
