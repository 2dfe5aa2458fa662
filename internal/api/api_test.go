package api

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/gitfolio/internal/ingest"
	"github.com/starford/gitfolio/internal/models"
	"github.com/starford/gitfolio/internal/projectsvc"
	"github.com/starford/gitfolio/internal/repofs"
	"github.com/starford/gitfolio/internal/store"
)

const testPassword = "hunter2"

type testEnv struct {
	server   *httptest.Server
	filesDir string
}

func newTestEnv(t *testing.T, authEnabled bool) *testEnv {
	t.Helper()
	dataDir := t.TempDir()
	filesDir := t.TempDir()

	projects, err := store.OpenProjects(filepath.Join(dataDir, "projects.json"))
	if err != nil {
		t.Fatal(err)
	}
	skills, err := store.OpenSkills(filepath.Join(dataDir, "skills.json"))
	if err != nil {
		t.Fatal(err)
	}
	articles, err := store.OpenArticles(filepath.Join(dataDir, "articles.json"))
	if err != nil {
		t.Fatal(err)
	}
	profile, err := store.OpenProfile(filepath.Join(dataDir, "profile.json"))
	if err != nil {
		t.Fatal(err)
	}

	imagesDir := filepath.Join(filesDir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	files, err := repofs.New(filesDir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	ing, err := ingest.New(filepath.Join(filesDir, "uploads"), filepath.Join(filesDir, "downloads"), ingest.Limits{})
	if err != nil {
		t.Fatal(err)
	}

	svc := projectsvc.NewService(projects, files, ing, nil, nil)
	handler := NewHandler(Deps{
		Projects:       svc,
		Skills:         skills,
		Articles:       articles,
		Profile:        profile,
		Sessions:       NewSessions(),
		Password:       testPassword,
		AuthEnabled:    authEnabled,
		ImagesDir:      imagesDir,
		MaxUploadBytes: 50 << 20,
	})

	srv := httptest.NewServer(NewRouter(handler, nil))
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, filesDir: filesDir}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func (e *testEnv) uploadProject(t *testing.T, name, description string, archive []byte) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", name); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("description", description); err != nil {
		t.Fatal(err)
	}
	if archive != nil {
		fw, err := mw.CreateFormFile("file", "project.zip")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(archive); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/projects", &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, false)

	resp, body := env.do(t, http.MethodPost, "/login", loginRequest{Password: testPassword})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		t.Fatal(err)
	}
	if !lr.Success || lr.Token == "" {
		t.Fatalf("login response = %+v", lr)
	}

	resp, _ = env.do(t, http.MethodPost, "/login", loginRequest{Password: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", resp.StatusCode)
	}
}

func TestAuthEnabled_GuardsMutations(t *testing.T) {
	env := newTestEnv(t, true)

	// Reads stay public.
	resp, _ := env.do(t, http.MethodGet, "/skills", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("public read status = %d", resp.StatusCode)
	}

	// Mutation without a token is rejected.
	resp, _ = env.do(t, http.MethodPost, "/skills", skillRequest{Name: "Docker", Category: "DevOps"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated mutation status = %d", resp.StatusCode)
	}

	// With a token from login it succeeds.
	_, body := env.do(t, http.MethodPost, "/login", loginRequest{Password: testPassword})
	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		t.Fatal(err)
	}
	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/skills", strings.NewReader(`{"name":"Docker","category":"DevOps"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+lr.Token)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("authenticated mutation status = %d", resp2.StatusCode)
	}
}

func TestSkillsCRUD(t *testing.T) {
	env := newTestEnv(t, false)

	resp, body := env.do(t, http.MethodPost, "/skills", skillRequest{Name: "Terraform", Category: "DevOps"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add status = %d, body = %s", resp.StatusCode, body)
	}
	var sr skillsResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		t.Fatal(err)
	}
	if !sr.Success {
		t.Fatal("add not successful")
	}
	count := len(sr.Skills)

	// Duplicate add succeeds without growing the list.
	_, body = env.do(t, http.MethodPost, "/skills", skillRequest{Name: "terraform", Category: "DevOps"})
	if err := json.Unmarshal(body, &sr); err != nil {
		t.Fatal(err)
	}
	if len(sr.Skills) != count {
		t.Fatalf("duplicate add grew list: %d -> %d", count, len(sr.Skills))
	}

	resp, _ = env.do(t, http.MethodPut, "/skills/Terraform", skillRequest{Name: "OpenTofu", Category: ""})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodPut, "/skills/NoSuchSkill", skillRequest{Name: "X", Category: "Y"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("update missing status = %d", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodDelete, "/skills/OpenTofu", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &sr); err != nil {
		t.Fatal(err)
	}
	if len(sr.Skills) != count-1 {
		t.Fatalf("delete did not shrink list: %d", len(sr.Skills))
	}
}

func TestArticlesFlow(t *testing.T) {
	env := newTestEnv(t, false)

	resp, body := env.do(t, http.MethodPost, "/articles", articleRequest{
		Title:   "Hello",
		Content: "Body text",
		Tags:    "go, web",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add status = %d, body = %s", resp.StatusCode, body)
	}
	var ar articleResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		t.Fatal(err)
	}
	if ar.Article.Summary != "Body text" || len(ar.Article.Tags) != 2 {
		t.Fatalf("article = %+v", ar.Article)
	}

	// Fetching increments views.
	_, body = env.do(t, http.MethodGet, "/articles/"+ar.Article.ID, nil)
	var got models.Article
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.Views != 1 {
		t.Fatalf("views = %d", got.Views)
	}

	resp, _ = env.do(t, http.MethodPost, "/articles", articleRequest{Title: "", Content: "x"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty title status = %d", resp.StatusCode)
	}

	// Deleting an unknown id still succeeds.
	resp, _ = env.do(t, http.MethodDelete, "/articles/ghost", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete unknown status = %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodDelete, "/articles/"+ar.Article.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodGet, "/articles/"+ar.Article.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted status = %d", resp.StatusCode)
	}
}

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t, false)
	archive := buildZip(t, map[string]string{
		"README.md":    "# Up",
		"main.py":      "print(1)",
		"assets/x.png": "bin",
	})

	resp, body := env.uploadProject(t, "Uploaded App", "does things", archive)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", resp.StatusCode, body)
	}
	var pr projectResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		t.Fatal(err)
	}
	p := pr.Project
	if p.Language != "Python" || p.Path == "" || p.DownloadURL == "" {
		t.Fatalf("project = %+v", p)
	}

	// Listing shows the new project first.
	_, body = env.do(t, http.MethodGet, "/projects", nil)
	var list []models.Project
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != p.ID {
		t.Fatalf("list = %+v", list)
	}

	// Browse the root directory: folders before files.
	_, body = env.do(t, http.MethodGet, "/projects/"+p.ID+"/files", nil)
	var fr filesResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		t.Fatal(err)
	}
	if len(fr.Files) != 3 || fr.Files[0].Name != "assets" || fr.Files[0].Type != "folder" {
		t.Fatalf("files = %+v", fr.Files)
	}

	// Text and binary content.
	_, body = env.do(t, http.MethodGet, "/projects/"+p.ID+"/file-content?path=main.py", nil)
	var cr contentResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		t.Fatal(err)
	}
	if cr.IsBinary || cr.Content != "print(1)" {
		t.Fatalf("content = %+v", cr)
	}
	_, body = env.do(t, http.MethodGet, "/projects/"+p.ID+"/file-content?path=assets/x.png", nil)
	if err := json.Unmarshal(body, &cr); err != nil {
		t.Fatal(err)
	}
	if !cr.IsBinary {
		t.Fatalf("binary content = %+v", cr)
	}

	// Traversal attempts are rejected.
	resp, _ = env.do(t, http.MethodGet, "/projects/"+p.ID+"/files?path=../..", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("traversal status = %d", resp.StatusCode)
	}

	// Readme comes back as plain text.
	resp, body = env.do(t, http.MethodGet, "/projects/"+p.ID+"/readme", nil)
	if resp.StatusCode != http.StatusOK || string(body) != "# Up" {
		t.Fatalf("readme = %q (status %d)", body, resp.StatusCode)
	}

	// Social counters clamp at zero.
	_, body = env.do(t, http.MethodPost, "/projects/"+p.ID+"/social", socialRequest{Type: "star", Action: "inc"})
	var soc socialResponse
	if err := json.Unmarshal(body, &soc); err != nil {
		t.Fatal(err)
	}
	if soc.Stars != 1 {
		t.Fatalf("stars = %d", soc.Stars)
	}
	env.do(t, http.MethodPost, "/projects/"+p.ID+"/social", socialRequest{Type: "star", Action: "dec"})
	_, body = env.do(t, http.MethodPost, "/projects/"+p.ID+"/social", socialRequest{Type: "star", Action: "dec"})
	if err := json.Unmarshal(body, &soc); err != nil {
		t.Fatal(err)
	}
	if soc.Stars != 0 {
		t.Fatalf("clamped stars = %d", soc.Stars)
	}
	resp, _ = env.do(t, http.MethodPost, "/projects/"+p.ID+"/social", socialRequest{Type: "fork", Action: "inc"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad social type status = %d", resp.StatusCode)
	}

	// Pin toggles on and off.
	_, body = env.do(t, http.MethodPatch, "/projects/"+p.ID+"/pin", nil)
	if !strings.Contains(string(body), `"isPinned":true`) {
		t.Fatalf("pin body = %s", body)
	}
	_, body = env.do(t, http.MethodPatch, "/projects/"+p.ID+"/pin", nil)
	if !strings.Contains(string(body), `"isPinned":false`) {
		t.Fatalf("unpin body = %s", body)
	}

	// Delete cascades to disk and later browsing 404s.
	dir := strings.TrimPrefix(p.Path, "/uploads/")
	resp, _ = env.do(t, http.MethodDelete, "/projects/"+p.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if _, err := os.Stat(filepath.Join(env.filesDir, "uploads", dir)); !os.IsNotExist(err) {
		t.Error("extracted tree survived delete")
	}
	resp, _ = env.do(t, http.MethodGet, "/projects/"+p.ID+"/files", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("files after delete status = %d", resp.StatusCode)
	}
	// Deleting again is still a success.
	resp, _ = env.do(t, http.MethodDelete, "/projects/"+p.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second delete status = %d", resp.StatusCode)
	}
}

func TestProjectUpload_InvalidArchive(t *testing.T) {
	env := newTestEnv(t, false)
	resp, _ := env.uploadProject(t, "Broken", "", []byte("not a zip"))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	_, body := env.do(t, http.MethodGet, "/projects", nil)
	var list []models.Project
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("rejected upload was registered: %+v", list)
	}
}

func TestProjectUpload_NameRequired(t *testing.T) {
	env := newTestEnv(t, false)
	resp, _ := env.uploadProject(t, "", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestStaticProjectHasNoFiles(t *testing.T) {
	env := newTestEnv(t, false)
	_, body := env.uploadProject(t, "Static Entry", "", nil)
	var pr projectResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		t.Fatal(err)
	}
	resp, _ := env.do(t, http.MethodGet, "/projects/"+pr.Project.ID+"/files", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("static files status = %d", resp.StatusCode)
	}
}

func TestProfileAndAvatar(t *testing.T) {
	env := newTestEnv(t, false)

	_, body := env.do(t, http.MethodGet, "/profile", nil)
	var p models.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatal(err)
	}
	if p.AvatarURL == "" {
		t.Fatal("empty default avatar")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", "me.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("\x89PNG fake"))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/profile/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("avatar upload status = %d, body = %s", resp.StatusCode, data)
	}
	var av avatarResponse
	if err := json.Unmarshal(data, &av); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(av.AvatarURL, "/images/avatar-") || !strings.HasSuffix(av.AvatarURL, ".png") {
		t.Fatalf("avatar url = %q", av.AvatarURL)
	}

	// The profile reflects the new URL and the file is on disk.
	_, body = env.do(t, http.MethodGet, "/profile", nil)
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatal(err)
	}
	if p.AvatarURL != av.AvatarURL {
		t.Fatalf("profile avatar = %q, want %q", p.AvatarURL, av.AvatarURL)
	}
	name := strings.TrimPrefix(av.AvatarURL, "/images/")
	if _, err := os.Stat(filepath.Join(env.filesDir, "images", name)); err != nil {
		t.Fatalf("avatar file missing: %v", err)
	}
}

func TestContributionsEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.uploadProject(t, "Recent", "", nil)

	_, body := env.do(t, http.MethodGet, "/contributions", nil)
	var activity struct {
		Weeks [][]struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
			Level int    `json:"level"`
			Color string `json:"color"`
		} `json:"weeks"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(body, &activity); err != nil {
		t.Fatal(err)
	}
	if len(activity.Weeks) != 53 {
		t.Fatalf("weeks = %d", len(activity.Weeks))
	}
	if activity.Total != 1 {
		t.Fatalf("total = %d", activity.Total)
	}
}

func TestSearch_WithoutIndexIsEmpty(t *testing.T) {
	env := newTestEnv(t, false)
	resp, body := env.do(t, http.MethodGet, "/search?q=anything", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"results":[]`) {
		t.Fatalf("body = %s", body)
	}
}

func TestFileServer_RejectsTraversal(t *testing.T) {
	imagesDir := t.TempDir()
	downloadsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(imagesDir, "ok.png"), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := NewFileServer(imagesDir, downloadsDir)
	r := chi.NewRouter()
	r.Get("/images/{filename}", fs.ServeImage)
	r.Get("/downloads/{filename}", fs.ServeDownload)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/images/ok.png")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("existing image status = %d", resp.StatusCode)
	}

	for _, path := range []string{
		"/images/missing.png",
		fmt.Sprintf("/images/%s", "..%2fsecret"),
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, resp.StatusCode)
		}
	}
}
