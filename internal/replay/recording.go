// Package replay stores combat log sessions so they can be analyzed again.
package replay

import (
	"compress/gzip"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ElodielAirea/WoWAnalyzer/internal/analysis"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatant"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"golang.org/x/crypto/blake2b"
)

// FileExtension is appended to the session id to name recording files.
const FileExtension = ".replay"

const formatVersion = 1

// ErrUnsupportedVersion is returned when a recording file was written by an
// incompatible format version.
var ErrUnsupportedVersion = errors.New("unsupported recording version")

// Recording is one materialized session: the selected player, the fight window
// and the ordered event stream.
type Recording struct {
	SessionID string
	Combatant combatant.Info
	Fight     analysis.Fight
	Events    []combatlog.Event
}

// Len returns the number of recorded events.
func (r *Recording) Len() int {
	return len(r.Events)
}

// Fingerprint returns a stable blake2b-256 digest of the recording content.
// The session id is excluded so that re-uploads of the same log collide.
func (r *Recording) Fingerprint() (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create hash: %w", err)
	}
	encoder := gob.NewEncoder(h)
	if err := encoder.Encode(r.Combatant); err != nil {
		return "", fmt.Errorf("failed to hash combatant: %w", err)
	}
	if err := encoder.Encode(r.Fight); err != nil {
		return "", fmt.Errorf("failed to hash fight: %w", err)
	}
	for i := range r.Events {
		if err := encoder.Encode(&r.Events[i]); err != nil {
			return "", fmt.Errorf("failed to hash event %d: %w", i, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// recordingMetadata is written ahead of the events.
type recordingMetadata struct {
	SessionID  string
	Timestamp  time.Time
	Version    int
	Combatant  combatant.Info
	Fight      analysis.Fight
	EventCount int
}

// Path returns the file a recording with the given session id is stored in.
func Path(directory, sessionID string) string {
	return filepath.Join(directory, sessionID+FileExtension)
}

// SaveToFile writes the recording as a gzipped gob stream.
func (r *Recording) SaveToFile(directory string) error {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(Path(directory, r.SessionID))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := recordingMetadata{
		SessionID:  r.SessionID,
		Timestamp:  time.Now(),
		Version:    formatVersion,
		Combatant:  r.Combatant,
		Fight:      r.Fight,
		EventCount: len(r.Events),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	for i := range r.Events {
		if err := encoder.Encode(&r.Events[i]); err != nil {
			return fmt.Errorf("failed to encode event %d: %w", i, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush recording: %w", err)
	}
	return nil
}

// LoadFromFile reads the recording stored for sessionID in directory.
func LoadFromFile(directory, sessionID string) (*Recording, error) {
	return LoadPath(Path(directory, sessionID))
}

// LoadPath reads a recording from an explicit file path.
func LoadPath(path string) (*Recording, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata recordingMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, metadata.Version)
	}

	rec := &Recording{
		SessionID: metadata.SessionID,
		Combatant: metadata.Combatant,
		Fight:     metadata.Fight,
		Events:    make([]combatlog.Event, 0, metadata.EventCount),
	}
	for i := 0; i < metadata.EventCount; i++ {
		var e combatlog.Event
		if err := decoder.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", i, err)
		}
		rec.Events = append(rec.Events, e)
	}

	return rec, nil
}
