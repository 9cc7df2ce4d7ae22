package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"commander/internal/fsutil"
	"commander/internal/git"
)

const gitRequestTimeout = 10 * time.Second

func (h *RestHandler) handleGitStatus(w http.ResponseWriter, r *http.Request) *apiError {
	workDir, apiErr := h.gitWorkDir(r)
	if apiErr != nil {
		return apiErr
	}
	ctx, cancel := context.WithTimeout(r.Context(), gitRequestTimeout)
	defer cancel()

	status, err := h.Git.Status(ctx, workDir)
	if err != nil {
		return gitError(err)
	}
	writeJSON(w, http.StatusOK, status)
	return nil
}

func (h *RestHandler) handleGitLog(w http.ResponseWriter, r *http.Request) *apiError {
	workDir, apiErr := h.gitWorkDir(r)
	if apiErr != nil {
		return apiErr
	}
	limit := git.DefaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return &apiError{Status: http.StatusBadRequest, Message: "invalid limit"}
		}
		limit = parsed
	}
	ctx, cancel := context.WithTimeout(r.Context(), gitRequestTimeout)
	defer cancel()

	commits, err := h.Git.Log(ctx, workDir, limit)
	if err != nil {
		return gitError(err)
	}
	writeJSON(w, http.StatusOK, commits)
	return nil
}

func (h *RestHandler) handleGitBranches(w http.ResponseWriter, r *http.Request) *apiError {
	workDir, apiErr := h.gitWorkDir(r)
	if apiErr != nil {
		return apiErr
	}
	ctx, cancel := context.WithTimeout(r.Context(), gitRequestTimeout)
	defer cancel()

	branches, err := h.Git.Branches(ctx, workDir)
	if err != nil {
		return gitError(err)
	}
	writeJSON(w, http.StatusOK, branches)
	return nil
}

func (h *RestHandler) gitWorkDir(r *http.Request) (string, *apiError) {
	if r.Method != http.MethodGet {
		return "", &apiError{Status: http.StatusMethodNotAllowed, Message: "method not allowed"}
	}
	raw := r.URL.Query().Get("path")
	if raw == "" {
		return "", &apiError{Status: http.StatusBadRequest, Message: "missing path"}
	}
	path, err := fsutil.ValidateHomePath(raw)
	if err != nil {
		if errors.Is(err, fsutil.ErrOutsideHome) {
			return "", &apiError{Status: http.StatusBadRequest, Message: "path must be inside the home directory"}
		}
		return "", &apiError{Status: http.StatusBadRequest, Message: "invalid path"}
	}
	return path, nil
}

func gitError(err error) *apiError {
	if errors.Is(err, git.ErrNotGitRepo) {
		return &apiError{Status: http.StatusNotFound, Message: "not a git repository"}
	}
	return internalError(err)
}
