package present

import (
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/kalambet/gitprofile/internal/storage"
)

var testProfiles = []storage.Profile{
	{ID: "1", Name: "Alice", Email: "alice@x.com", Alias: "work"},
	{ID: "2", Name: "Bob", Email: "bob@x.com", Alias: "home"},
}

func renderer(p termenv.Profile) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(p)
	return r
}

func lineContaining(t *testing.T, out, needle string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, needle) {
			return line
		}
	}
	t.Fatalf("no line contains %q in:\n%s", needle, out)
	return ""
}

func TestRows_MarksOnlyCurrent(t *testing.T) {
	rows := Rows(testProfiles, "bob@x.com")

	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Active {
		t.Error("Alice marked active")
	}
	if !rows[1].Active {
		t.Error("Bob not marked active")
	}
}

func TestRows_EmptyCurrentMarksNothing(t *testing.T) {
	profiles := append(testProfiles, storage.Profile{ID: "3", Name: "Nobody", Email: ""})
	for _, r := range Rows(profiles, "") {
		if r.Active {
			t.Errorf("row %+v active with no current email", r)
		}
	}
}

func TestRows_ExactEmailOnly(t *testing.T) {
	for _, r := range Rows(testProfiles, "BOB@x.com") {
		if r.Active {
			t.Errorf("row %+v active for differently-cased email", r)
		}
	}
}

func TestRender_PlainHasColumnsInOrder(t *testing.T) {
	out := NewTable(renderer(termenv.Ascii)).Render(testProfiles, "bob@x.com")

	if strings.Contains(out, "\x1b[") {
		t.Errorf("ASCII profile output contains escape codes:\n%q", out)
	}

	header := lineContaining(t, out, "Alias")
	if !(strings.Index(header, "Alias") < strings.Index(header, "Name") &&
		strings.Index(header, "Name") < strings.Index(header, "Email")) {
		t.Errorf("header columns out of order: %q", header)
	}

	if strings.Index(out, "alice@x.com") > strings.Index(out, "bob@x.com") {
		t.Error("rows not in list order")
	}
	alice := lineContaining(t, out, "alice@x.com")
	if !strings.Contains(alice, "work") || !strings.Contains(alice, "Alice") {
		t.Errorf("Alice row missing cells: %q", alice)
	}
}

// TestRender_EmphasizesActiveRow verifies exactly the current profile's row is bold+italic.
func TestRender_EmphasizesActiveRow(t *testing.T) {
	out := NewTable(renderer(termenv.ANSI)).Render(testProfiles, "bob@x.com")

	emphasis := regexp.MustCompile(`\x1b\[1;3[;m]`)
	if !emphasis.MatchString(lineContaining(t, out, "bob@x.com")) {
		t.Errorf("Bob row not emphasized: %q", lineContaining(t, out, "bob@x.com"))
	}
	if emphasis.MatchString(lineContaining(t, out, "alice@x.com")) {
		t.Errorf("Alice row emphasized: %q", lineContaining(t, out, "alice@x.com"))
	}
}

func TestRender_Empty(t *testing.T) {
	out := NewTable(renderer(termenv.Ascii)).Render(nil, "")
	if !strings.Contains(out, "Alias") {
		t.Errorf("empty table missing header:\n%s", out)
	}
}
