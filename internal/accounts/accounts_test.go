package accounts

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_SkipsMalformedLines(t *testing.T) {
	path := writeFile(t, "alice@example.com:hunter2\nnot-a-pair\nbob@example.com:secret\n")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Load: got %d accounts, want 2", len(got))
	}
	if got[0].Email != "alice@example.com" || got[1].Email != "bob@example.com" {
		t.Errorf("Load: order not preserved: %+v", got)
	}
}

func TestLoad_TrimsWhitespace(t *testing.T) {
	path := writeFile(t, "  carol@example.com : pa ss  \n")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Load: got %d accounts, want 1", len(got))
	}
	if got[0].Email != "carol@example.com" {
		t.Errorf("Email: got %q", got[0].Email)
	}
	if got[0].Password != "pa ss" {
		t.Errorf("Password: got %q", got[0].Password)
	}
}

func TestLoad_DropsEmptyFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"blank lines", "\n\n\n", 0},
		{"missing password", "dave@example.com:\n", 0},
		{"missing email", ":secret\n", 0},
		{"colon only", ":\n", 0},
		{"one valid among noise", "\nx\neve@example.com:pw\n:\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeFile(t, tt.content))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Load: got %d accounts, want %d", len(got), tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}
