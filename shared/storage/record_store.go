package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pulse-stack/internal/models"
)

// RecordStore persists one JSON file per video under a platform-specific
// directory, with a parallel directory for transient audio downloads.
//
// The store is the only shared mutable resource of a run and assumes a single
// owner; the mutex only guards against accidental reuse across goroutines.
type RecordStore struct {
	recordDir string
	audioDir  string
	mu        sync.Mutex
}

// NewRecordStore creates the metadata and audio directories for a platform
// under dataDir if they do not exist yet.
func NewRecordStore(dataDir string, platform models.Platform) (*RecordStore, error) {
	recordDir := filepath.Join(dataDir, string(platform)+"Data")
	audioDir := filepath.Join(dataDir, "audio", string(platform)+"_audio")

	for _, dir := range []string{recordDir, audioDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &RecordStore{
		recordDir: recordDir,
		audioDir:  audioDir,
	}, nil
}

// Clear removes every file in the record and audio directories. Called at run
// init so no state leaks across runs.
func (s *RecordStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, dir := range []string{s.recordDir, s.audioDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to read directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
				return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
			}
		}
	}
	return nil
}

// Put writes the record to <video_id>.json, replacing any previous version.
// The on-disk copy is always the latest in-memory state.
func (s *RecordStore) Put(id string, record *models.VideoRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Create(s.recordPath(id))
	if err != nil {
		return fmt.Errorf("failed to create record file for %s: %w", id, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to encode record %s: %w", id, err)
	}
	return nil
}

// Get reads the persisted record for id.
func (s *RecordStore) Get(id string) (*models.VideoRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}

	var record models.VideoRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return &record, nil
}

// Delete removes the persisted record for id. Deleting a record that is
// already gone is not an error.
func (s *RecordStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.recordPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return nil
}

// List returns the ids of all persisted records, in directory order.
func (s *RecordStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.recordDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read record directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	return ids, nil
}

// LoadAll reads every persisted record. Unreadable files are skipped so one
// corrupt record cannot hide the rest of a run's output.
func (s *RecordStore) LoadAll() ([]*models.VideoRecord, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}

	var records []*models.VideoRecord
	for _, id := range ids {
		record, err := s.Get(id)
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// AudioPath returns where the transient audio download for id lives.
func (s *RecordStore) AudioPath(id string) string {
	return filepath.Join(s.audioDir, id+".mp3")
}

// AudioDir returns the transient audio directory.
func (s *RecordStore) AudioDir() string {
	return s.audioDir
}

func (s *RecordStore) recordPath(id string) string {
	return filepath.Join(s.recordDir, id+".json")
}
