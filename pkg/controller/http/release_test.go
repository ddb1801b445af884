package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	controller "github.com/m-mizutani/relmap/pkg/controller/http"
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/m-mizutani/relmap/pkg/infra/releaseapi"
	"github.com/m-mizutani/relmap/pkg/repository"
)

const testToken = "test-token"

func newTestServer(t *testing.T) (*httptest.Server, *model.ReleaseTarget) {
	t.Helper()

	server, err := controller.NewServer(context.Background(), repository.NewMemory(),
		controller.WithAuthToken(testToken),
	)
	gt.NoError(t, err)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, &model.ReleaseTarget{
		Org:       "my-org",
		Project:   "web",
		Release:   "1.0.0+build/7",
		AuthToken: testToken,
		URL:       ts.URL,
	}
}

func listFiles(t *testing.T, target *model.ReleaseTarget) []model.Artifact {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet,
		target.URL+"/api/0/projects/my-org/web/releases/1.0.0+build%2F7/files/", nil)
	gt.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)

	resp, err := http.DefaultClient.Do(req)
	gt.NoError(t, err)
	defer resp.Body.Close()
	gt.Equal(t, resp.StatusCode, http.StatusOK)

	var artifacts []model.Artifact
	gt.NoError(t, json.NewDecoder(resp.Body).Decode(&artifacts))
	return artifacts
}

func TestReleaseAPI_Lifecycle(t *testing.T) {
	ctx := context.Background()
	_, target := newTestServer(t)
	client := releaseapi.NewClient()

	gt.NoError(t, client.CreateRelease(ctx, target))
	// creating the same release again is accepted
	gt.NoError(t, client.CreateRelease(ctx, target))

	gt.NoError(t, client.UploadReleaseFile(ctx, target, &model.ReleaseFile{Name: "~/main.js", Content: []byte("js")}))
	gt.NoError(t, client.UploadReleaseFile(ctx, target, &model.ReleaseFile{Name: "~/main.js.map", Content: []byte("{}")}))

	artifacts := listFiles(t, target)
	gt.A(t, artifacts).Length(2)
	gt.Equal(t, artifacts[0].Name, "~/main.js")
	gt.Equal(t, artifacts[0].Size, 2)
	gt.Equal(t, artifacts[0].SHA1, "93f8bb0eb2c659b85694486c41717eaf0fe23cd4")

	gt.NoError(t, client.FinalizeRelease(ctx, target, time.Now()))

	gt.NoError(t, client.DeleteAllReleaseArtifacts(ctx, target))
	gt.A(t, listFiles(t, target)).Length(0)
}

func TestReleaseAPI_UploadToUnknownRelease(t *testing.T) {
	_, target := newTestServer(t)
	client := releaseapi.NewClient()

	err := client.UploadReleaseFile(context.Background(), target, &model.ReleaseFile{Name: "~/main.js", Content: []byte("js")})
	gt.Error(t, err)
}

func TestReleaseAPI_FinalizeUnknownRelease(t *testing.T) {
	_, target := newTestServer(t)
	client := releaseapi.NewClient()

	gt.Error(t, client.FinalizeRelease(context.Background(), target, time.Now()))
}

func TestReleaseAPI_InvalidToken(t *testing.T) {
	_, target := newTestServer(t)
	target.AuthToken = "wrong"
	client := releaseapi.NewClient()

	gt.Error(t, client.CreateRelease(context.Background(), target))
}

func TestReleaseAPI_BadRequests(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{
			name:   "create without version",
			method: http.MethodPost,
			path:   "/api/0/organizations/my-org/releases/",
			body:   `{"projects":["web"]}`,
			want:   http.StatusBadRequest,
		},
		{
			name:   "create without projects",
			method: http.MethodPost,
			path:   "/api/0/organizations/my-org/releases/",
			body:   `{"version":"1"}`,
			want:   http.StatusBadRequest,
		},
		{
			name:   "create with broken JSON",
			method: http.MethodPost,
			path:   "/api/0/organizations/my-org/releases/",
			body:   `{`,
			want:   http.StatusBadRequest,
		},
		{
			name:   "delete without name",
			method: http.MethodDelete,
			path:   "/api/0/projects/my-org/web/files/source-maps/",
			want:   http.StatusBadRequest,
		},
		{
			name:   "missing token",
			method: http.MethodGet,
			path:   "/api/0/projects/my-org/web/releases/1/files/",
			want:   http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, bytes.NewReader([]byte(tt.body)))
			gt.NoError(t, err)
			if tt.want != http.StatusUnauthorized {
				req.Header.Set("Authorization", "Bearer "+testToken)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			gt.NoError(t, err)
			defer resp.Body.Close()
			gt.Equal(t, resp.StatusCode, tt.want)
		})
	}
}
