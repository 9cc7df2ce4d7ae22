package git

import (
	"strconv"
	"strings"
)

// ParseStatus reads `git status --porcelain=v2 --branch` output.
func ParseStatus(raw string) Status {
	status := Status{
		Staged:    []File{},
		Unstaged:  []File{},
		Untracked: []string{},
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "# branch.head "):
			status.Branch = strings.TrimPrefix(line, "# branch.head ")
		case strings.HasPrefix(line, "# branch.ab "):
			parseAheadBehind(strings.TrimPrefix(line, "# branch.ab "), &status)
		case strings.HasPrefix(line, "? "):
			status.Untracked = append(status.Untracked, strings.TrimPrefix(line, "? "))
		case strings.HasPrefix(line, "1 "), strings.HasPrefix(line, "2 "):
			parseChangeLine(line, &status)
		}
	}
	return status
}

func parseAheadBehind(raw string, status *Status) {
	for _, part := range strings.Fields(raw) {
		if len(part) < 2 {
			continue
		}
		value, err := strconv.Atoi(part[1:])
		if err != nil {
			continue
		}
		switch part[0] {
		case '+':
			status.Ahead = value
		case '-':
			status.Behind = value
		}
	}
}

// parseChangeLine handles porcelain v2 "1" (changed) and "2" (renamed)
// records. Field 2 is the two-character XY status; the path is the final
// field.
func parseChangeLine(line string, status *Status) {
	fields, ok := splitChangeLine(line)
	if !ok {
		return
	}
	xy := fields.xy
	path := fields.path

	if xy[0] != '.' {
		status.Staged = append(status.Staged, File{Path: path, Status: indexStatusName(xy[0])})
	}
	if xy[1] != '.' {
		status.Unstaged = append(status.Unstaged, File{Path: path, Status: worktreeStatusName(xy[1])})
	}
}

type changeFields struct {
	xy   string
	path string
}

// Porcelain v2 change records carry a fixed number of fields before the
// path: eight for "1" (changed), nine for "2" (renamed, the extra field
// is the similarity score). Everything after them is the path, spaces
// included.
func splitChangeLine(line string) (changeFields, bool) {
	fixed := 8
	if strings.HasPrefix(line, "2 ") {
		fixed = 9
	}
	parts := strings.SplitN(line, " ", fixed+1)
	if len(parts) != fixed+1 || len(parts[1]) != 2 {
		return changeFields{}, false
	}
	path := parts[fixed]
	// Renames carry "new<TAB>old"; keep the new path.
	if tab := strings.IndexByte(path, '\t'); tab >= 0 {
		path = path[:tab]
	}
	return changeFields{xy: parts[1], path: path}, true
}

func indexStatusName(code byte) string {
	switch code {
	case 'A':
		return "added"
	case 'M':
		return "modified"
	case 'D':
		return "deleted"
	case 'R':
		return "renamed"
	default:
		return "changed"
	}
}

func worktreeStatusName(code byte) string {
	switch code {
	case 'M':
		return "modified"
	case 'D':
		return "deleted"
	case 'R':
		return "renamed"
	default:
		return "changed"
	}
}

// ParseLog reads NUL-separated `git log` records: hash, subject, author,
// committer date.
func ParseLog(raw string) []Commit {
	commits := []Commit{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\x00", 4)
		if len(parts) != 4 {
			continue
		}
		commits = append(commits, Commit{
			Hash:      parts[0],
			ShortHash: shortHash(parts[0]),
			Message:   parts[1],
			Author:    parts[2],
			Timestamp: parts[3],
		})
	}
	return commits
}

// ParseBranches reads `git branch --all --format=%(HEAD)%00%(refname:short)`.
func ParseBranches(raw string) []Branch {
	branches := []Branch{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\x00", 2)
		if len(parts) != 2 || parts[1] == "" {
			continue
		}
		name := parts[1]
		branches = append(branches, Branch{
			Name:      name,
			IsCurrent: parts[0] == "*",
			IsRemote:  strings.HasPrefix(name, "origin/") || strings.Contains(name, "remotes/"),
		})
	}
	return branches
}

func shortHash(hash string) string {
	if len(hash) <= 7 {
		return hash
	}
	return hash[:7]
}
