package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestAdapter_LoadMemes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "memes.json", `[
		{"id": "ss0001", "caption": " 上班好累 ", "emotion": ["tired"], "keywords": ["好累"]},
		{"id": "SS0002", "intent": ["celebrate"]}
	]`)

	a := NewAdapter(path, "")
	memes, err := a.LoadMemes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(memes) != 2 {
		t.Fatalf("expected 2 memes, got %d", len(memes))
	}
	if memes[0].ID != "SS0001" {
		t.Errorf("expected id to be trimmed and uppercased, got %q", memes[0].ID)
	}
	if memes[0].Caption != "上班好累" {
		t.Errorf("expected caption to be trimmed, got %q", memes[0].Caption)
	}
	if len(memes[1].Intent) != 1 || memes[1].Intent[0] != "celebrate" {
		t.Errorf("unexpected intent: %v", memes[1].Intent)
	}
}

func TestAdapter_LoadMemes_MissingID(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "memes.json", `[{"caption": "no id"}]`)

	a := NewAdapter(path, "")
	if _, err := a.LoadMemes(context.Background()); err == nil {
		t.Fatal("expected error for record without id")
	}
}

func TestAdapter_LoadAliases(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "aliases.json", `[
		{"id": "ss0001", "name": "黑人問號", "aliases": [" 問號 ", "", "black guy"]}
	]`)

	a := NewAdapter("", path)
	aliases, err := a.LoadAliases(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(aliases) != 1 {
		t.Fatalf("expected 1 alias meme, got %d", len(aliases))
	}
	if aliases[0].ID != "SS0001" {
		t.Errorf("expected normalized id, got %q", aliases[0].ID)
	}
	want := []string{"問號", "black guy"}
	if len(aliases[0].Aliases) != len(want) {
		t.Fatalf("expected %d aliases, got %v", len(want), aliases[0].Aliases)
	}
	for i, alias := range want {
		if aliases[0].Aliases[i] != alias {
			t.Errorf("alias %d = %q, want %q", i, aliases[0].Aliases[i], alias)
		}
	}
}

func TestAdapter_EmptyPaths(t *testing.T) {
	a := NewAdapter("", "")

	memes, err := a.LoadMemes(context.Background())
	if err != nil || memes != nil {
		t.Errorf("expected nil memes without error, got %v, %v", memes, err)
	}
	aliases, err := a.LoadAliases(context.Background())
	if err != nil || aliases != nil {
		t.Errorf("expected nil aliases without error, got %v, %v", aliases, err)
	}
}

func TestAdapter_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "memes.json", `{not json`)

	a := NewAdapter(path, "")
	if _, err := a.LoadMemes(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}
