package util

import (
	"errors"
	"strings"
	"testing"
)

func TestShortID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		n    int
		want string
	}{
		{
			name: "default length truncates",
			id:   "3f2a9c1e-77aa-4b1e",
			n:    0,
			want: "3f2a9c1e",
		},
		{
			name: "negative uses default",
			id:   "3f2a9c1e-77aa-4b1e",
			n:    -1,
			want: "3f2a9c1e",
		},
		{
			name: "explicit length",
			id:   "3f2a9c1e",
			n:    4,
			want: "3f2a",
		},
		{
			name: "length longer than ID",
			id:   "abc",
			n:    20,
			want: "abc",
		},
		{
			name: "empty ID",
			id:   "",
			n:    8,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortID(tt.id, tt.n); got != tt.want {
				t.Errorf("ShortID(%q, %d) = %q, want %q", tt.id, tt.n, got, tt.want)
			}
		})
	}
}

func TestNewTaskID(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewTaskID()
		if len(id) != DefaultShortIDLength {
			t.Fatalf("NewTaskID() = %q, want %d chars", id, DefaultShortIDLength)
		}
		if strings.Contains(id, "-") {
			t.Fatalf("NewTaskID() = %q contains a dash", id)
		}
		seen[id] = true
	}
	if len(seen) < 95 {
		t.Errorf("NewTaskID produced too many collisions: %d unique of 100", len(seen))
	}
	if len(NewProjectID()) != DefaultShortIDLength {
		t.Error("NewProjectID has wrong length")
	}
}

func TestResolveID(t *testing.T) {
	known := []string{"abc12345", "abd99999", "ffff0000", "ab"}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "exact", input: "ffff0000", want: "ffff0000"},
		{name: "unique prefix", input: "abc", want: "abc12345"},
		{name: "exact beats prefix", input: "ab", want: "ab"},
		{name: "ambiguous", input: "a", wantErr: ErrAmbiguousID},
		{name: "missing", input: "zzz", wantErr: ErrNotFound},
		{name: "empty", input: "", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveID(tt.input, known, "task")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveID(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveID(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ResolveID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAmbiguousErrorMessage(t *testing.T) {
	known := []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"}
	_, err := ResolveID("a", known, "task")
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "matches 7 tasks") {
		t.Errorf("message should report candidate count: %s", msg)
	}
	if strings.Contains(msg, "a6") {
		t.Errorf("message should list at most %d candidates: %s", MaxAmbiguousCandidates, msg)
	}
}
