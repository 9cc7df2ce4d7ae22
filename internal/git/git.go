package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLogLimit = 20
	MaxLogLimit     = 50
)

var ErrNotGitRepo = errors.New("not a git repository")

type Status struct {
	Branch    string   `json:"branch"`
	Ahead     int      `json:"ahead"`
	Behind    int      `json:"behind"`
	Staged    []File   `json:"staged"`
	Unstaged  []File   `json:"unstaged"`
	Untracked []string `json:"untracked"`
}

type File struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

type Commit struct {
	Hash      string `json:"hash"`
	ShortHash string `json:"short_hash"`
	Message   string `json:"message"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
}

type Branch struct {
	Name      string `json:"name"`
	IsCurrent bool   `json:"is_current"`
	IsRemote  bool   `json:"is_remote"`
}

// Reader runs git against a working directory. The command-backed
// implementation is CmdReader; tests substitute their own.
type Reader interface {
	Status(ctx context.Context, workDir string) (Status, error)
	Log(ctx context.Context, workDir string, limit int) ([]Commit, error)
	Branches(ctx context.Context, workDir string) ([]Branch, error)
}

type CmdReader struct{}

func (reader CmdReader) Status(ctx context.Context, workDir string) (Status, error) {
	output, err := runGit(ctx, workDir, "status", "--porcelain=v2", "--branch")
	if err != nil {
		return Status{}, classifyGitError(err)
	}
	return ParseStatus(output), nil
}

func (reader CmdReader) Log(ctx context.Context, workDir string, limit int) ([]Commit, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	if limit > MaxLogLimit {
		limit = MaxLogLimit
	}

	output, err := runGit(
		ctx,
		workDir,
		"log",
		"-n",
		strconv.Itoa(limit),
		"--date=iso-strict",
		"--pretty=format:%H%x00%s%x00%an%x00%cI",
	)
	if err != nil {
		return nil, classifyGitError(err)
	}
	return ParseLog(output), nil
}

func (reader CmdReader) Branches(ctx context.Context, workDir string) ([]Branch, error) {
	output, err := runGit(ctx, workDir, "branch", "--all", "--format=%(HEAD)%00%(refname:short)")
	if err != nil {
		return nil, classifyGitError(err)
	}
	return ParseBranches(output), nil
}

// StatusWithTimeout bounds a status call, for handlers without a deadline.
func StatusWithTimeout(reader Reader, workDir string, timeout time.Duration) (Status, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return reader.Status(ctx, workDir)
}

func runGit(ctx context.Context, workDir string, args ...string) (string, error) {
	command := exec.CommandContext(ctx, "git", append([]string{"-C", workDir}, args...)...)
	output, err := command.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

func classifyGitError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if strings.Contains(strings.ToLower(err.Error()), "not a git repository") {
		return ErrNotGitRepo
	}
	return err
}
