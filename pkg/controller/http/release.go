package http

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relmap/pkg/domain/interfaces"
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/m-mizutani/relmap/pkg/repository"
)

// ReleaseHandler serves the release API endpoints
type ReleaseHandler struct {
	repo      interfaces.ReleaseRepository
	maxUpload int64
	now       func() time.Time
}

// NewReleaseHandler creates a new ReleaseHandler
func NewReleaseHandler(repo interfaces.ReleaseRepository, maxUpload int64) *ReleaseHandler {
	return &ReleaseHandler{
		repo:      repo,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

type createReleaseRequest struct {
	Version  string   `json:"version"`
	Projects []string `json:"projects"`
}

type updateReleaseRequest struct {
	DateReleased *time.Time `json:"dateReleased"`
}

// CreateRelease handles POST /organizations/{org}/releases/
func (h *ReleaseHandler) CreateRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)
	org := pathParam(r, "org")

	var req createReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
		return
	}
	if req.Version == "" {
		writeError(w, goerr.New("version is required"), http.StatusBadRequest)
		return
	}
	if len(req.Projects) == 0 {
		writeError(w, goerr.New("projects is required"), http.StatusBadRequest)
		return
	}

	status := http.StatusCreated
	if _, err := h.repo.GetRelease(ctx, org, req.Version); err == nil {
		status = http.StatusAlreadyReported
	}

	stored, err := h.repo.PutRelease(ctx, org, &model.Release{
		Version:     req.Version,
		Projects:    req.Projects,
		DateCreated: h.now().UTC(),
	})
	if err != nil {
		logger.Error("Failed to store release", "error", err)
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	logger.Info("Release created", "org", org, "version", stored.Version, "projects", stored.Projects)
	writeJSON(ctx, w, status, stored)
}

// UpdateRelease handles PUT /projects/{org}/{project}/releases/{release}/
func (h *ReleaseHandler) UpdateRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	org, version := pathParam(r, "org"), pathParam(r, "release")

	var req updateReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
		return
	}

	release, ok := h.lookupRelease(w, r, org, version)
	if !ok {
		return
	}

	if req.DateReleased != nil {
		t := req.DateReleased.UTC()
		release.DateReleased = &t
	}

	if err := h.repo.UpdateRelease(ctx, org, release); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	ctxlog.From(ctx).Info("Release updated", "org", org, "version", version, "date_released", release.DateReleased)
	writeJSON(ctx, w, http.StatusOK, release)
}

// UploadFile handles POST /projects/{org}/{project}/releases/{release}/files/
func (h *ReleaseHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	org, project, version := pathParam(r, "org"), pathParam(r, "project"), pathParam(r, "release")

	if _, ok := h.lookupRelease(w, r, org, version); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, goerr.Wrap(err, "invalid multipart payload"), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, goerr.Wrap(err, "file is required"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, goerr.Wrap(err, "failed to read file"), http.StatusBadRequest)
		return
	}

	sum := sha1.Sum(content)
	artifact := &model.Artifact{
		ID:          uuid.NewString(),
		Name:        name,
		Dist:        r.FormValue("dist"),
		Size:        len(content),
		SHA1:        hex.EncodeToString(sum[:]),
		DateCreated: h.now().UTC(),
	}

	if err := h.repo.PutArtifact(ctx, org, project, version, artifact); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	ctxlog.From(ctx).Info("Artifact uploaded", "version", version, "name", name, "size", artifact.Size)
	writeJSON(ctx, w, http.StatusCreated, artifact)
}

// ListFiles handles GET /projects/{org}/{project}/releases/{release}/files/
func (h *ReleaseHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	org, project, version := pathParam(r, "org"), pathParam(r, "project"), pathParam(r, "release")

	if _, ok := h.lookupRelease(w, r, org, version); !ok {
		return
	}

	artifacts, err := h.repo.ListArtifacts(ctx, org, project, version)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(ctx, w, http.StatusOK, artifacts)
}

// DeleteArtifacts handles DELETE /projects/{org}/{project}/files/source-maps/?name={release}
func (h *ReleaseHandler) DeleteArtifacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	org, project := pathParam(r, "org"), pathParam(r, "project")

	version := r.URL.Query().Get("name")
	if version == "" {
		writeError(w, goerr.New("name query parameter is required"), http.StatusBadRequest)
		return
	}

	n, err := h.repo.DeleteArtifacts(ctx, org, project, version)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	ctxlog.From(ctx).Info("Artifacts deleted", "version", version, "count", n)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReleaseHandler) lookupRelease(w http.ResponseWriter, r *http.Request, org, version string) (*model.Release, bool) {
	release, err := h.repo.GetRelease(r.Context(), org, version)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, err, http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return nil, false
	}
	return release, true
}

// pathParam returns the unescaped URL parameter
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
