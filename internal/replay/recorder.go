package replay

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/ElodielAirea/WoWAnalyzer/internal/analysis"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatant"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"go.uber.org/zap"
)

// Recorder collects events from an upstream parser into recordings, one per
// session, and persists them in a directory. It is safe for concurrent use.
type Recorder struct {
	logger     *zap.Logger
	mu         sync.RWMutex
	recordings map[string]*Recording // sessionID -> Recording
	enabled    map[string]bool       // sessionID -> whether recording is enabled
	saveDir    string
}

// NewRecorder creates a recorder that saves into saveDir.
func NewRecorder(logger *zap.Logger, saveDir string) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		logger:     logger,
		recordings: make(map[string]*Recording),
		enabled:    make(map[string]bool),
		saveDir:    saveDir,
	}
}

// Directory returns the directory recordings are saved to.
func (rr *Recorder) Directory() string {
	return rr.saveDir
}

// StartRecording begins a recording for the session.
func (rr *Recorder) StartRecording(sessionID string, info combatant.Info, fight analysis.Fight) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.recordings[sessionID] = &Recording{
		SessionID: sessionID,
		Combatant: info,
		Fight:     fight,
	}
	rr.enabled[sessionID] = true

	rr.logger.Info("started recording",
		zap.String("session_id", sessionID),
		zap.Int64("player_id", int64(info.PlayerID)),
	)
}

// StopRecording stops accepting events for the session.
func (rr *Recorder) StopRecording(sessionID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[sessionID] = false

	rr.logger.Info("stopped recording", zap.String("session_id", sessionID))
}

// Record appends an event if recording is enabled for the session. Events are
// kept in arrival order.
func (rr *Recorder) Record(sessionID string, e combatlog.Event) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rec := rr.recordings[sessionID]
	if !rr.enabled[sessionID] || rec == nil {
		return
	}
	rec.Events = append(rec.Events, e)
}

// Recording returns a snapshot of the in-memory recording for the session.
// Events recorded afterwards do not appear in it.
func (rr *Recorder) Recording(sessionID string) (*Recording, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	rec, exists := rr.recordings[sessionID]
	if !exists {
		return nil, false
	}
	snapshot := *rec
	snapshot.Combatant.Talents = slices.Clone(rec.Combatant.Talents)
	snapshot.Events = slices.Clone(rec.Events)
	return &snapshot, true
}

// Save writes the recording to disk and removes it from memory.
func (rr *Recorder) Save(sessionID string) error {
	rr.mu.Lock()
	rec, exists := rr.recordings[sessionID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no recording found for session %s", sessionID)
	}
	delete(rr.recordings, sessionID)
	delete(rr.enabled, sessionID)
	rr.mu.Unlock()

	if err := rec.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save recording: %w", err)
	}

	rr.logger.Info("saved recording to disk",
		zap.String("session_id", sessionID),
		zap.Int("event_count", rec.Len()),
		zap.String("directory", rr.saveDir),
	)
	return nil
}

// Load reads a saved recording from disk.
func (rr *Recorder) Load(sessionID string) (*Recording, error) {
	rec, err := LoadFromFile(rr.saveDir, sessionID)
	if err != nil {
		return nil, err
	}

	rr.logger.Info("loaded recording from disk",
		zap.String("session_id", sessionID),
		zap.Int("event_count", rec.Len()),
	)
	return rec, nil
}

// Saved lists the session ids of the recordings stored on disk, sorted.
func (rr *Recorder) Saved() ([]string, error) {
	entries, err := os.ReadDir(rr.saveDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, FileExtension) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, FileExtension))
	}
	sort.Strings(ids)
	return ids, nil
}

// Clear drops an in-memory recording without saving it.
func (rr *Recorder) Clear(sessionID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.recordings, sessionID)
	delete(rr.enabled, sessionID)

	rr.logger.Debug("cleared recording from memory", zap.String("session_id", sessionID))
}

// IsRecording reports whether events are being accepted for the session.
func (rr *Recorder) IsRecording(sessionID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled[sessionID]
}
