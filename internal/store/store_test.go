package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/gitfolio/internal/apperr"
	"github.com/starford/gitfolio/internal/models"
)

func TestCollection_SeedAndPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skills.json")
	s, err := OpenSkills(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.List()) != len(initialSkills) {
		t.Fatalf("seed: got %d skills, want %d", len(s.List()), len(initialSkills))
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("seed file not persisted: %v", err)
	}

	// Reopening must read the persisted seed, not reseed.
	s2, err := OpenSkills(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(s2.List()) != len(initialSkills) {
		t.Fatalf("reopen: got %d skills", len(s2.List()))
	}
}

func TestCollection_CorruptFileFailSoft(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := OpenProjects(path)
	if err != nil {
		t.Fatalf("corrupt file should not fail open: %v", err)
	}
	if got := len(s.List()); got != 0 {
		t.Fatalf("corrupt file should yield empty collection, got %d", got)
	}
}

func TestProjects_AddPrependsNewestFirst(t *testing.T) {
	s, err := OpenProjects(filepath.Join(t.TempDir(), "projects.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(models.Project{ID: "1", Name: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(models.Project{ID: "2", Name: "second"}); err != nil {
		t.Fatal(err)
	}
	list := s.List()
	if len(list) != 2 || list[0].ID != "2" || list[1].ID != "1" {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestProjects_CountersClampAtZero(t *testing.T) {
	s, err := OpenProjects(filepath.Join(t.TempDir(), "projects.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(models.Project{ID: "p1"}); err != nil {
		t.Fatal(err)
	}

	p, err := s.AdjustCounter("p1", CounterStar, 1)
	if err != nil || p.Stars != 1 {
		t.Fatalf("inc: stars = %d, err = %v", p.Stars, err)
	}
	p, err = s.AdjustCounter("p1", CounterStar, -1)
	if err != nil || p.Stars != 0 {
		t.Fatalf("dec: stars = %d, err = %v", p.Stars, err)
	}
	// Decrementing at zero stays at zero.
	p, err = s.AdjustCounter("p1", CounterStar, -1)
	if err != nil || p.Stars != 0 {
		t.Fatalf("dec at zero: stars = %d, err = %v", p.Stars, err)
	}

	if _, err := s.AdjustCounter("missing", CounterWatch, 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestProjects_TogglePin(t *testing.T) {
	s, err := OpenProjects(filepath.Join(t.TempDir(), "projects.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(models.Project{ID: "p1"}); err != nil {
		t.Fatal(err)
	}
	pinned, err := s.TogglePin("p1")
	if err != nil || !pinned {
		t.Fatalf("first toggle: pinned = %v, err = %v", pinned, err)
	}
	pinned, err = s.TogglePin("p1")
	if err != nil || pinned {
		t.Fatalf("second toggle: pinned = %v, err = %v", pinned, err)
	}
}

func TestProjects_DeleteUnknownIsNoOp(t *testing.T) {
	s, err := OpenProjects(filepath.Join(t.TempDir(), "projects.json"))
	if err != nil {
		t.Fatal(err)
	}
	_, found, err := s.Delete("ghost")
	if err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
	if found {
		t.Fatal("delete unknown: found = true")
	}
}

func TestSkills_DuplicateAddIsSilentNoOp(t *testing.T) {
	s, err := OpenSkills(filepath.Join(t.TempDir(), "skills.json"))
	if err != nil {
		t.Fatal(err)
	}
	before := len(s.List())
	// "go" matches the seeded "Go" case-insensitively.
	skills, err := s.Add("go", "Language")
	if err != nil {
		t.Fatalf("duplicate add should succeed: %v", err)
	}
	if len(skills) != before {
		t.Fatalf("duplicate add changed count: %d -> %d", before, len(skills))
	}

	skills, err = s.Add("Kubernetes", "DevOps")
	if err != nil {
		t.Fatal(err)
	}
	if len(skills) != before+1 {
		t.Fatalf("new add: got %d skills, want %d", len(skills), before+1)
	}
}

func TestSkills_AddValidation(t *testing.T) {
	s, err := OpenSkills(filepath.Join(t.TempDir(), "skills.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add("", "Language"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty name: err = %v, want ErrValidation", err)
	}
}

func TestSkills_UpdateKeepsBlankFields(t *testing.T) {
	s, err := OpenSkills(filepath.Join(t.TempDir(), "skills.json"))
	if err != nil {
		t.Fatal(err)
	}
	skills, err := s.Update("Go", "Golang", "")
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, sk := range skills {
		if sk.Name == "Golang" {
			found = true
			if sk.Category != "Language" {
				t.Errorf("blank category overwritten: %q", sk.Category)
			}
		}
	}
	if !found {
		t.Fatal("renamed skill not found")
	}

	if _, err := s.Update("NoSuchSkill", "x", "y"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown skill: err = %v, want ErrNotFound", err)
	}
}

func TestArticles_AddDefaults(t *testing.T) {
	s, err := OpenArticles(filepath.Join(t.TempDir(), "articles.json"))
	if err != nil {
		t.Fatal(err)
	}
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	a, err := s.Add("Title", string(long), "", " go , testing ,")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Summary) != summaryLen+3 || a.Summary[summaryLen:] != "..." {
		t.Errorf("summary not truncated: %d chars", len(a.Summary))
	}
	if len(a.Tags) != 2 || a.Tags[0] != "go" || a.Tags[1] != "testing" {
		t.Errorf("tags = %v", a.Tags)
	}
	if a.Views != 0 {
		t.Errorf("views = %d", a.Views)
	}
	if a.ID == "" || a.Date == "" {
		t.Errorf("missing id or date: %+v", a)
	}

	if _, err := s.Add("", "content", "", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty title: err = %v, want ErrValidation", err)
	}
}

func TestArticles_GetIncrementsViews(t *testing.T) {
	s, err := OpenArticles(filepath.Join(t.TempDir(), "articles.json"))
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.Add("T", "C", "", "")
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(a.ID)
	if err != nil || got.Views != 1 {
		t.Fatalf("first get: views = %d, err = %v", got.Views, err)
	}
	got, err = s.Get(a.ID)
	if err != nil || got.Views != 2 {
		t.Fatalf("second get: views = %d, err = %v", got.Views, err)
	}
	if _, err := s.Get("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestProfile_DefaultAndSetAvatar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	s, err := OpenProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Get().AvatarURL != defaultAvatarURL {
		t.Fatalf("default avatar = %q", s.Get().AvatarURL)
	}

	p, err := s.SetAvatar("/images/avatar-x.png")
	if err != nil {
		t.Fatal(err)
	}
	if p.AvatarURL != "/images/avatar-x.png" {
		t.Fatalf("avatar = %q", p.AvatarURL)
	}

	s2, err := OpenProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if s2.Get().AvatarURL != "/images/avatar-x.png" {
		t.Fatalf("reopen avatar = %q", s2.Get().AvatarURL)
	}
}

func TestCollection_FailedPersistLeavesMemoryUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	s, err := OpenProjects(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"1", "2", "3"} {
		if err := s.Add(models.Project{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	// Replace the backing file with a directory so the atomic rename fails.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.Delete("2"); err == nil {
		t.Fatal("delete should fail when persist fails")
	}
	list := s.List()
	if len(list) != 3 || list[0].ID != "3" || list[1].ID != "2" || list[2].ID != "1" {
		t.Fatalf("failed delete mutated memory: %+v", list)
	}

	if _, err := s.AdjustCounter("1", CounterStar, 1); err == nil {
		t.Fatal("counter bump should fail when persist fails")
	}
	p, err := s.Get("1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Stars != 0 {
		t.Fatalf("failed counter bump stuck in memory: stars = %d", p.Stars)
	}

	// Once the disk recovers, mutations work against the intact state.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	removed, found, err := s.Delete("2")
	if err != nil || !found || removed.ID != "2" {
		t.Fatalf("delete after recovery: removed = %+v, found = %v, err = %v", removed, found, err)
	}
	if len(s.List()) != 2 {
		t.Fatalf("list after recovery = %+v", s.List())
	}
}

func TestCollection_ReloadDetectsExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	s, err := OpenProjects(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(models.Project{ID: "1", Name: "one"}); err != nil {
		t.Fatal(err)
	}

	// Reload with no external change is a no-op (checksum gate).
	changed, err := s.Reload()
	if err != nil || changed {
		t.Fatalf("self-write reload: changed = %v, err = %v", changed, err)
	}

	// External edit must be picked up.
	if err := os.WriteFile(path, []byte(`[{"id":"2","name":"two"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	changed, err = s.Reload()
	if err != nil || !changed {
		t.Fatalf("external reload: changed = %v, err = %v", changed, err)
	}
	list := s.List()
	if len(list) != 1 || list[0].ID != "2" {
		t.Fatalf("reloaded list = %+v", list)
	}
}
