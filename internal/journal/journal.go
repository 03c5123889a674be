// Package journal keeps an append-only record of repository
// operations: one JSON line per operation, each carrying its own
// checksum so tampering is detectable when the journal is read back.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
)

const FileName = "journal"

// Entry is one journaled operation. OldHead/NewHead record the head
// movement the operation caused; for operations that do not move the
// head the two are equal.
type Entry struct {
	ID       string `json:"id"`
	Op       string `json:"op"`
	OldHead  string `json:"oldHead"`
	NewHead  string `json:"newHead"`
	Message  string `json:"message,omitempty"`
	Time     string `json:"time"`
	Checksum string `json:"checksum"`
}

// checksum covers every field except Checksum itself.
func (e *Entry) checksum() string {
	payload := e.ID + "\x00" + e.Op + "\x00" + e.OldHead + "\x00" + e.NewHead + "\x00" + e.Message + "\x00" + e.Time
	return fmt.Sprintf("%016x", xxh3.HashString(payload))
}

// Journal appends entries to a plain file under the repository
// directory. The journal is an operator-facing audit trail, not
// repository state, so it stays a flat file on every storage backend.
type Journal struct {
	path   string
	logger *zap.Logger
}

func New(repoDir string, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{path: filepath.Join(repoDir, FileName), logger: logger}
}

// Record appends one entry. Journal failures are deliberately
// non-fatal to callers; losing an audit line must not fail the
// operation it describes.
func (j *Journal) Record(op, oldHead, newHead, message string) {
	entry := Entry{
		ID:      uuid.New().String(),
		Op:      op,
		OldHead: oldHead,
		NewHead: newHead,
		Message: message,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	entry.Checksum = entry.checksum()

	data, err := json.Marshal(&entry)
	if err != nil {
		j.logger.Warn("encoding journal entry", zap.Error(err))
		return
	}

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		j.logger.Warn("opening journal", zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		j.logger.Warn("appending journal entry", zap.Error(err))
	}
}

// ReadEntry pairs a parsed entry with its integrity verdict.
type ReadEntry struct {
	Entry Entry
	// Tampered is true when the line did not parse or its checksum
	// does not match its content.
	Tampered bool
	Raw      string
}

// Read returns every journal line, oldest first. An absent journal is
// an empty history.
func (j *Journal) Read() ([]ReadEntry, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	var entries []ReadEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		re := ReadEntry{Raw: line}
		if err := json.Unmarshal([]byte(line), &re.Entry); err != nil {
			re.Tampered = true
		} else if re.Entry.Checksum != re.Entry.checksum() {
			re.Tampered = true
		}
		entries = append(entries, re)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return entries, nil
}
