package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustInsert(t *testing.T, s *Store, id, name, email, alias string) Profile {
	t.Helper()
	p := Profile{ID: id, Name: name, Email: email, Alias: alias}
	if err := s.InsertProfile(p); err != nil {
		t.Fatalf("InsertProfile(%s): %v", email, err)
	}
	return p
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	mustInsert(t, s1, "p1", "Alice", "alice@x.com", "work")

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}

	n, err := s2.CountProfiles()
	if err != nil {
		t.Fatalf("CountProfiles: %v", err)
	}
	if n != 1 {
		t.Errorf("profiles after reopen = %d, want 1", n)
	}
}

// TestOpenCreatesDatabaseFile verifies the data directory and database file are created.
func TestOpenCreatesDatabaseFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if s.Path() != filepath.Join(dir, DBFileName) {
		t.Errorf("Path() = %q, want %q", s.Path(), filepath.Join(dir, DBFileName))
	}
	if _, err := os.Stat(s.Path()); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestProfilesTableShape(t *testing.T) {
	s := openTestStore(t)

	rows, err := s.db.Query("PRAGMA table_info(profiles)")
	if err != nil {
		t.Fatalf("table_info: %v", err)
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var cid, notNull, pk int
		var name, typ string
		var dflt any
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols[name] = true
	}
	for _, want := range []string{"id", "email", "name", "alias"} {
		if !cols[want] {
			t.Errorf("profiles table missing column %q", want)
		}
	}
}

// TestListProfilesInsertionOrder adds profiles and checks list returns each once, in order.
func TestListProfilesInsertionOrder(t *testing.T) {
	s := openTestStore(t)

	// ids deliberately sort opposite to insertion order
	mustInsert(t, s, "z", "Alice", "alice@x.com", "work")
	mustInsert(t, s, "m", "Bob", "bob@x.com", "home")
	mustInsert(t, s, "a", "Carol", "carol@x.com", "")

	got, err := s.ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}

	wantEmails := []string{"alice@x.com", "bob@x.com", "carol@x.com"}
	if len(got) != len(wantEmails) {
		t.Fatalf("len(profiles) = %d, want %d", len(got), len(wantEmails))
	}
	for i, want := range wantEmails {
		if got[i].Email != want {
			t.Errorf("profiles[%d].Email = %q, want %q", i, got[i].Email, want)
		}
	}
	if got[2].Alias != "" {
		t.Errorf("Carol alias = %q, want empty", got[2].Alias)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestListProfilesEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(profiles) = %d, want 0", len(got))
	}
}

func TestInsertProfilePreservesCreatedAt(t *testing.T) {
	s := openTestStore(t)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.InsertProfile(Profile{ID: "p1", Name: "Alice", Email: "alice@x.com", Alias: "work", CreatedAt: at}); err != nil {
		t.Fatalf("InsertProfile: %v", err)
	}

	p, err := s.FindProfile("", "alice@x.com")
	if err != nil {
		t.Fatalf("FindProfile: %v", err)
	}
	if !p.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", p.CreatedAt, at)
	}
}

// TestDuplicateEmailRejected verifies the second add fails and the row count is unchanged.
func TestDuplicateEmailRejected(t *testing.T) {
	s := openTestStore(t)
	mustInsert(t, s, "p1", "Alice", "alice@x.com", "work")

	err := s.InsertProfile(Profile{ID: "p2", Name: "Alice Again", Email: "alice@x.com", Alias: "other"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("error = %v, want ErrDuplicate", err)
	}

	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("error %T is not *DuplicateError", err)
	}
	if dup.Field != "email" {
		t.Errorf("Field = %q, want email", dup.Field)
	}
	if dup.Value != "alice@x.com" {
		t.Errorf("Value = %q, want alice@x.com", dup.Value)
	}

	n, err := s.CountProfiles()
	if err != nil {
		t.Fatalf("CountProfiles: %v", err)
	}
	if n != 1 {
		t.Errorf("row count = %d, want 1", n)
	}
}

func TestDuplicateAliasRejected(t *testing.T) {
	s := openTestStore(t)
	mustInsert(t, s, "p1", "Alice", "alice@x.com", "work")

	err := s.InsertProfile(Profile{ID: "p2", Name: "Bob", Email: "bob@x.com", Alias: "work"})
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("error = %v, want *DuplicateError", err)
	}
	if dup.Field != "alias" {
		t.Errorf("Field = %q, want alias", dup.Field)
	}

	n, _ := s.CountProfiles()
	if n != 1 {
		t.Errorf("row count = %d, want 1", n)
	}
}

// TestEmptyAliasesDoNotCollide verifies alias uniqueness only applies to non-empty aliases.
func TestEmptyAliasesDoNotCollide(t *testing.T) {
	s := openTestStore(t)
	mustInsert(t, s, "p1", "Alice", "alice@x.com", "")
	mustInsert(t, s, "p2", "Bob", "bob@x.com", "")

	n, err := s.CountProfiles()
	if err != nil {
		t.Fatalf("CountProfiles: %v", err)
	}
	if n != 2 {
		t.Errorf("row count = %d, want 2", n)
	}
}

// TestFindProfileEmptyFiltersReturnsFirst pins the OR/substring interaction:
// with no filters the first stored profile matches.
func TestFindProfileEmptyFiltersReturnsFirst(t *testing.T) {
	s := openTestStore(t)
	mustInsert(t, s, "p1", "Alice", "alice@x.com", "work")
	mustInsert(t, s, "p2", "Bob", "bob@x.com", "home")

	p, err := s.FindProfile("", "")
	if err != nil {
		t.Fatalf("FindProfile: %v", err)
	}
	if p.Email != "alice@x.com" {
		t.Errorf("Email = %q, want alice@x.com", p.Email)
	}
}

func TestFindProfileAliasSubstring(t *testing.T) {
	tests := []struct {
		alias string
		match bool
	}{
		{alias: "engineering", match: true},
		{alias: "eng", match: true},
		{alias: "reengage", match: true},
		{alias: "ENG", match: true},
		{alias: "design", match: false},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			s := openTestStore(t)
			mustInsert(t, s, "p1", "Someone", "someone@x.com", tt.alias)

			_, err := s.FindProfile("eng", "")
			if tt.match && err != nil {
				t.Errorf("FindProfile(eng) on alias %q: %v, want match", tt.alias, err)
			}
			if !tt.match && !errors.Is(err, ErrNotFound) {
				t.Errorf("FindProfile(eng) on alias %q: err = %v, want ErrNotFound", tt.alias, err)
			}
		})
	}
}

func TestFindProfileFirstMatchWins(t *testing.T) {
	s := openTestStore(t)
	mustInsert(t, s, "p1", "Design", "design@x.com", "design")
	mustInsert(t, s, "p2", "Eng", "eng@x.com", "engineering")
	mustInsert(t, s, "p3", "Eng Ops", "ops@x.com", "eng-ops")

	p, err := s.FindProfile("eng", "")
	if err != nil {
		t.Fatalf("FindProfile: %v", err)
	}
	if p.Email != "eng@x.com" {
		t.Errorf("Email = %q, want eng@x.com", p.Email)
	}
}

// TestFindProfileOrSemantics verifies a profile matches on either filter.
func TestFindProfileOrSemantics(t *testing.T) {
	s := openTestStore(t)
	mustInsert(t, s, "p1", "Alice", "alice@x.com", "work")
	mustInsert(t, s, "p2", "Bob", "bob@x.com", "home")

	// alias misses, email hits
	p, err := s.FindProfile("nope", "bob@x.com")
	if err != nil {
		t.Fatalf("FindProfile: %v", err)
	}
	if p.Alias != "home" {
		t.Errorf("Alias = %q, want home", p.Alias)
	}

	// both hit different rows: storage order decides
	p, err = s.FindProfile("home", "alice@x.com")
	if err != nil {
		t.Fatalf("FindProfile: %v", err)
	}
	if p.Email != "alice@x.com" {
		t.Errorf("Email = %q, want alice@x.com", p.Email)
	}
}

func TestFindProfileEmailIsExact(t *testing.T) {
	s := openTestStore(t)
	mustInsert(t, s, "p1", "Alice", "alice@x.com", "work")

	_, err := s.FindProfile("nomatch", "alice@x")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFindProfileWildcardsAreLiteral(t *testing.T) {
	s := openTestStore(t)
	mustInsert(t, s, "p1", "Alice", "alice@x.com", "work")

	for _, filter := range []string{"%", "_", "w_rk"} {
		if _, err := s.FindProfile(filter, ""); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindProfile(%q) err = %v, want ErrNotFound", filter, err)
		}
	}
}

func TestFindProfileEmptyFilterMatchesNoAlias(t *testing.T) {
	s := openTestStore(t)
	mustInsert(t, s, "p1", "Alice", "alice@x.com", "")
	mustInsert(t, s, "p2", "Bob", "bob@x.com", "home")

	p, err := s.FindProfile("", "")
	if err != nil {
		t.Fatalf("FindProfile: %v", err)
	}
	if p.ID != "p1" {
		t.Errorf("got %s, want first-inserted p1", p.ID)
	}
}

func TestFindProfileNoAliasNotMatchedBySubstring(t *testing.T) {
	s := openTestStore(t)
	mustInsert(t, s, "p1", "Alice", "alice@x.com", "")

	_, err := s.FindProfile("a", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLockMemoryIsNoop(t *testing.T) {
	s := openTestStore(t)

	unlock, err := s.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := unlock(); err != nil {
		t.Errorf("unlock: %v", err)
	}
}

// TestLockExcludesSecondHolder verifies a second store on the same file blocks until release.
func TestLockExcludesSecondHolder(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s1.Close()
	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s2.Close()

	unlock, err := s1.Lock(context.Background())
	if err != nil {
		t.Fatalf("first Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := s2.Lock(ctx); err == nil {
		t.Fatal("second Lock succeeded while first is held")
	}

	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	unlock2, err := s2.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	unlock2()
}
