package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/owenleonard11/chronam-utils/pkg/chronam"
	"github.com/owenleonard11/chronam-utils/pkg/logger"
	"github.com/owenleonard11/chronam-utils/pkg/query"
)

// Checkpoint is a durable snapshot of one query run
type Checkpoint struct {
	Desc           string                    `json:"desc"`
	NextPage       int                       `json:"next_page"`
	TotalAvailable int                       `json:"total_available"`
	Status         query.Status              `json:"status"`
	Records        map[string]chronam.Record `json:"records"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
	Version        int                       `json:"version"`
}

// Capture snapshots the current progress of a query state
func Capture(st *query.State) *Checkpoint {
	records := make(map[string]chronam.Record, len(st.Results))
	for id, rec := range st.Results {
		records[id] = rec
	}

	return &Checkpoint{
		Desc:           st.Query.Desc,
		NextPage:       st.NextPage,
		TotalAvailable: st.TotalAvailable,
		Status:         st.Status,
		Records:        records,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
		Version:        1,
	}
}

// Restore rebuilds a query state from the snapshot. The query itself is not
// persisted, so the caller supplies it; a mismatched description is an error
// since resuming a different query from this progress would corrupt both.
func (cp *Checkpoint) Restore(q *chronam.Query) (*query.State, error) {
	if q.Desc != cp.Desc {
		return nil, fmt.Errorf("checkpoint is for query %q, not %q", cp.Desc, q.Desc)
	}

	st := query.NewState(q)
	st.NextPage = cp.NextPage
	st.TotalAvailable = cp.TotalAvailable
	st.Status = cp.Status
	for id, rec := range cp.Records {
		st.Results[id] = rec
	}

	return st, nil
}

// Manager handles checkpoint persistence for one query
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager for the query with the given
// description. Checkpoints live under the platform data directory.
func NewManager(desc string) (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}

	checkpointsDir := filepath.Join(dataDir, "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	checkpointPath := filepath.Join(checkpointsDir, fmt.Sprintf("%s.checkpoint.json", sanitizeName(desc)))

	return &Manager{
		checkpointPath: checkpointPath,
		logger:         logger.GetLogger(),
	}, nil
}

// Load loads an existing checkpoint, or nil if none has been saved
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"query":      cp.Desc,
		"collected":  len(cp.Records),
		"next_page":  cp.NextPage,
		"status":     string(cp.Status),
		"updated_at": cp.UpdatedAt,
	})

	return &cp, nil
}

// Save saves the checkpoint to disk atomically
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	// Ensure data is written to disk before the rename
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"query":     cp.Desc,
		"collected": len(cp.Records),
		"next_page": cp.NextPage,
	})

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// sanitizeName maps a query description to a safe filename component
func sanitizeName(desc string) string {
	var sb strings.Builder
	for _, r := range desc {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	name := sb.String()
	if len(name) > 80 {
		name = name[:80]
	}
	if name == "" {
		name = "query"
	}
	return name
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		// Use XDG_DATA_HOME if set, otherwise ~/.local/share
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "chronam")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "chronam")
		}
	case "darwin":
		// macOS: ~/Library/Application Support
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "chronam")
	case "windows":
		// Windows: %APPDATA%
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "chronam")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
