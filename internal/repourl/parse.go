// internal/repourl/parse.go
package repourl

import (
	"regexp"
	"strings"

	custom_errors "indiegamehub-repocheck/internal/errors"
	"indiegamehub-repocheck/internal/model"
)

// Supported URL forms, tried in order. The repo group is lazy so an
// optional ".git" suffix and trailing slash are left out of the name.
// Query strings and fragments are not part of any form.
var patterns = []*regexp.Regexp{
	// https://github.com/owner/repo[.git][/]
	regexp.MustCompile(`^https://github\.com/([^/?#]+)/([^/?#]+?)(?:\.git)?/?$`),
	// git@github.com:owner/repo[.git]
	regexp.MustCompile(`^git@github\.com:([^/?#]+)/([^/?#]+?)(?:\.git)?$`),
	// https://www.github.com/owner/repo[.git][/]
	regexp.MustCompile(`^https://www\.github\.com/([^/?#]+)/([^/?#]+?)(?:\.git)?/?$`),
}

// Parse extracts the owner and repository name from a repository URL.
// The second return value is false when raw matches none of the supported forms.
func Parse(raw string) (model.RepositoryReference, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, re := range patterns {
		match := re.FindStringSubmatch(trimmed)
		if len(match) != 3 {
			continue
		}
		// A bare ".git" is only the suffix, leaving an empty name.
		if match[2] == ".git" {
			continue
		}
		return model.RepositoryReference{Owner: match[1], Repo: match[2]}, true
	}
	return model.RepositoryReference{}, false
}

// ParseFullName parses an "owner/name" pair.
func ParseFullName(fullName string) (model.RepositoryReference, error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return model.RepositoryReference{}, &custom_errors.ErrInvalidRepoFormat{Repo: fullName}
	}
	return model.RepositoryReference{Owner: parts[0], Repo: parts[1]}, nil
}
