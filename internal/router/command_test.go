package router

import (
	"context"
	"testing"
)

func nopHandler(ctx context.Context, req *Request) error { return nil }

func TestRegistryResolve(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Register(Command{Name: "List_Tugas", Aliases: []string{"tugas", "LISTTUGAS"}, Handle: nopHandler})

	for _, token := range []string{"list_tugas", "LIST_TUGAS", "tugas", "listtugas", " tugas "} {
		c := reg.Resolve(token)
		if c == nil {
			t.Fatalf("Resolve(%q) = nil", token)
		}
		if c.Name != "list_tugas" {
			t.Errorf("Resolve(%q).Name = %q, want canonical list_tugas", token, c.Name)
		}
	}
	if reg.Resolve("hapus_tugas") != nil {
		t.Error("unregistered command should resolve to nil")
	}
}

func TestRegistryReplace(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Register(Command{Name: "ping", Description: "first", Handle: nopHandler})
	reg.Register(Command{Name: "ping", Description: "second", Handle: nopHandler})

	if got := reg.Resolve("ping").Description; got != "second" {
		t.Errorf("later Register should win, got %q", got)
	}
	if n := len(reg.All()); n != 1 {
		t.Errorf("All() = %d commands, want 1", n)
	}
}

func TestRegistryCategories(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Register(Command{Name: "tambah_tugas", Category: "Tugas", Handle: nopHandler})
	reg.Register(Command{Name: "list_tugas", Category: "Tugas", Handle: nopHandler})
	reg.Register(Command{Name: "ping", Category: "Utilitas", Handle: nopHandler})

	cats := reg.Categories()
	if len(cats) != 2 || cats[0] != "Tugas" || cats[1] != "Utilitas" {
		t.Errorf("Categories() = %v, want [Tugas Utilitas]", cats)
	}
	if got := reg.ByCategory("tugas"); len(got) != 2 {
		t.Errorf("ByCategory should match case-insensitively, got %d", len(got))
	}
}

func TestSuggest(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	reg.Register(Command{Name: "list_tugas", Handle: nopHandler})

	if got := reg.suggest("list"); got != "list_tugas" {
		t.Errorf("suggest(list) = %q, want list_tugas", got)
	}
	if got := reg.suggest("zz"); got != "" {
		t.Errorf("too-short token should not suggest, got %q", got)
	}
	if got := reg.suggest("hapus"); got != "" {
		t.Errorf("unrelated token should not suggest, got %q", got)
	}
}
