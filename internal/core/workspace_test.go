package core

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestWorkspace_Lifecycle(t *testing.T) {
	root := t.TempDir()

	ws, err := NewWorkspace(root, "abc")
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}
	if !strings.HasPrefix(ws.Dir(), root) {
		t.Errorf("Dir() = %q, want under %q", ws.Dir(), root)
	}

	path, n, err := ws.WriteFrom("input.csv", strings.NewReader("a,b\n1,2\n"), 1024)
	if err != nil {
		t.Fatalf("WriteFrom() error = %v", err)
	}
	if n != 8 {
		t.Errorf("WriteFrom() n = %d, want 8", n)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "a,b\n1,2\n" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}

	if _, err := ws.WriteFile("out.xlsx", []byte("x")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := ws.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Errorf("workspace still exists after Close: %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestWorkspace_WriteFromLimit(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "lim")
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}
	defer ws.Close()

	tests := []struct {
		name    string
		body    string
		limit   int64
		wantErr error
	}{
		{"under limit", "1234", 5, nil},
		{"at limit", "12345", 5, nil},
		{"over limit", "123456", 5, ErrFileTooLarge},
		{"no limit", strings.Repeat("x", 100), 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ws.WriteFrom(tt.name, strings.NewReader(tt.body), tt.limit)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("WriteFrom() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("WriteFrom() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWorkspace_PathStaysInside(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "p")
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}
	defer ws.Close()

	if got := ws.Path("../../etc/passwd"); !strings.HasPrefix(got, ws.Dir()) {
		t.Errorf("Path() = %q escapes %q", got, ws.Dir())
	}
}
