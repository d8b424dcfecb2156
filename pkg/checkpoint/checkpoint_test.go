package checkpoint

import (
	"os"
	"testing"

	"github.com/owenleonard11/chronam-utils/pkg/chronam"
	"github.com/owenleonard11/chronam-utils/pkg/query"
)

func testState(t *testing.T) *query.State {
	t.Helper()
	q, err := chronam.NewQuery(chronam.Query{AndText: []string{"homestead"}, Desc: "homestead-search"})
	if err != nil {
		t.Fatalf("Failed to build query: %v", err)
	}

	st := query.NewState(q)
	st.NextPage = 2
	st.TotalAvailable = 45
	st.Status = query.StatusInProgress
	st.Results["sn00000001/1900-01-01/ed-1/seq-1/"] = chronam.Record{
		ID:     "sn00000001/1900-01-01/ed-1/seq-1/",
		Fields: map[string]interface{}{"title": "Test gazette."},
	}
	return st
}

func TestCheckpointManager(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "checkpoint_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Set environment variable to use temp directory
	os.Setenv("XDG_DATA_HOME", tempDir)
	defer os.Unsetenv("XDG_DATA_HOME")

	st := testState(t)

	t.Run("SaveAndLoad", func(t *testing.T) {
		mgr, err := NewManager(st.Query.Desc)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if mgr.Exists() {
			t.Error("Expected no checkpoint before first save")
		}

		if err := mgr.Save(Capture(st)); err != nil {
			t.Fatalf("Failed to save checkpoint: %v", err)
		}

		if !mgr.Exists() {
			t.Error("Expected checkpoint to exist after save")
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded == nil {
			t.Fatal("Expected checkpoint, got nil")
		}
		if loaded.Desc != "homestead-search" {
			t.Errorf("Expected desc homestead-search, got %s", loaded.Desc)
		}
		if loaded.NextPage != 2 {
			t.Errorf("Expected next page 2, got %d", loaded.NextPage)
		}
		if len(loaded.Records) != 1 {
			t.Errorf("Expected 1 record, got %d", len(loaded.Records))
		}
	})

	t.Run("Restore", func(t *testing.T) {
		cp := Capture(st)

		restored, err := cp.Restore(st.Query)
		if err != nil {
			t.Fatalf("Failed to restore state: %v", err)
		}

		if restored.NextPage != st.NextPage {
			t.Errorf("Expected next page %d, got %d", st.NextPage, restored.NextPage)
		}
		if restored.TotalAvailable != st.TotalAvailable {
			t.Errorf("Expected total %d, got %d", st.TotalAvailable, restored.TotalAvailable)
		}
		if restored.Status != query.StatusInProgress {
			t.Errorf("Expected status in_progress, got %s", restored.Status)
		}
		if len(restored.Results) != len(st.Results) {
			t.Errorf("Expected %d records, got %d", len(st.Results), len(restored.Results))
		}
	})

	t.Run("RestoreRejectsMismatchedQuery", func(t *testing.T) {
		cp := Capture(st)

		other, err := chronam.NewQuery(chronam.Query{AndText: []string{"railroad"}, Desc: "railroad-search"})
		if err != nil {
			t.Fatalf("Failed to build query: %v", err)
		}

		if _, err := cp.Restore(other); err == nil {
			t.Error("Expected error restoring with a different query")
		}
	})

	t.Run("LoadMissing", func(t *testing.T) {
		mgr, err := NewManager("never-saved")
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Expected no error for missing checkpoint, got %v", err)
		}
		if loaded != nil {
			t.Error("Expected nil checkpoint for missing file")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		mgr, err := NewManager(st.Query.Desc)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if err := mgr.Save(Capture(st)); err != nil {
			t.Fatalf("Failed to save checkpoint: %v", err)
		}
		if err := mgr.Delete(); err != nil {
			t.Fatalf("Failed to delete checkpoint: %v", err)
		}
		if mgr.Exists() {
			t.Error("Expected checkpoint to be gone after delete")
		}

		// Deleting again is not an error
		if err := mgr.Delete(); err != nil {
			t.Errorf("Expected idempotent delete, got %v", err)
		}
	})
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"homestead-search", "homestead-search"},
		{"andtext=homestead&state=Ohio", "andtext_homestead_state_Ohio"},
		{"", "query"},
	}

	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
