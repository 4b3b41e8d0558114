// Package lock serializes changelog generation. A run takes a lock file in
// the state directory keyed by the changelog's absolute path, so two
// processes never rewrite the same file at once. Locks left behind by dead
// processes are detected by PID and replaced.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const lockExt = ".lock"

// ErrCorrupt marks a lock file that exists but cannot be parsed. Lock files
// are linked into place fully written, so such a file never belongs to a
// live run and is treated as stale.
var ErrCorrupt = errors.New("corrupt lock file")

// Lock is the content of a lock file.
type Lock struct {
	// RunID is the identifier of the run holding the lock.
	RunID string `yaml:"run_id"`
	// PID is the process ID holding the lock.
	PID int `yaml:"pid"`
	// Target is the absolute path of the locked changelog.
	Target string `yaml:"target"`
	// Command is the command that took the lock, e.g. "changelog generate".
	Command string `yaml:"command"`
	// StartedAt is when the lock was acquired.
	StartedAt time.Time `yaml:"started_at"`

	stateDir string
}

// HeldError reports a lock owned by another live process.
type HeldError struct {
	Holder *Lock
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("%s is locked by run %s (PID %d, %s since %s)",
		e.Holder.Target, e.Holder.RunID, e.Holder.PID, e.Holder.Command,
		e.Holder.StartedAt.Format(time.RFC3339))
}

// IsHeld reports whether err is a *HeldError and returns it.
func IsHeld(err error) (*HeldError, bool) {
	var held *HeldError
	ok := errors.As(err, &held)
	return held, ok
}

// GetLockPath returns the lock file path for target inside stateDir.
func GetLockPath(stateDir, target string) string {
	return filepath.Join(stateDir, lockName(absPath(target)))
}

// lockName is the base name plus a short digest of the absolute path, so
// two CHANGELOG.txt files in different repositories do not collide.
func lockName(abs string) string {
	sum := sha256.Sum256([]byte(abs))
	return fmt.Sprintf("%s-%s%s", filepath.Base(abs), hex.EncodeToString(sum[:])[:12], lockExt)
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// Acquire takes the lock for target. A stale lock (dead PID or unparseable
// content) is removed first; a live one yields *HeldError.
func Acquire(stateDir, target, command string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	l := &Lock{
		RunID:     uuid.NewString(),
		PID:       os.Getpid(),
		Target:    absPath(target),
		Command:   command,
		StartedAt: time.Now(),
		stateDir:  stateDir,
	}
	lockPath := GetLockPath(stateDir, target)

	// Two attempts: the second follows the removal of a stale lock.
	for attempt := 0; attempt < 2; attempt++ {
		err := writeExclusive(lockPath, l)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}

		existing, loadErr := loadLockFile(lockPath)
		if loadErr != nil && !errors.Is(loadErr, ErrCorrupt) {
			return nil, loadErr
		}
		if existing != nil && !IsLockStale(existing) {
			return nil, &HeldError{Holder: existing}
		}
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing stale lock file: %w", err)
		}
	}
	return nil, fmt.Errorf("acquiring lock %s: lock file keeps reappearing", lockPath)
}

// Release removes the lock file if it still belongs to this run.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	lockPath := GetLockPath(l.stateDir, l.Target)
	current, err := loadLockFile(lockPath)
	if err != nil {
		return err
	}
	if current == nil || current.RunID != l.RunID {
		return nil
	}
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// ForceRelease removes the lock for target regardless of its owner.
// It returns the removed lock, or nil when there was none. A corrupt lock
// file is removed too and reported as a Lock with only Target set.
func ForceRelease(stateDir, target string) (*Lock, error) {
	lockPath := GetLockPath(stateDir, target)
	existing, err := loadLockFile(lockPath)
	switch {
	case errors.Is(err, ErrCorrupt):
		existing = &Lock{Target: absPath(target), stateDir: stateDir}
	case err != nil:
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing lock file: %w", err)
	}
	return existing, nil
}

// LoadLock reads the lock for target.
// Returns nil and no error if the lock file doesn't exist, and an error
// wrapping ErrCorrupt if it cannot be parsed.
func LoadLock(stateDir, target string) (*Lock, error) {
	return loadLockFile(GetLockPath(stateDir, target))
}

func loadLockFile(lockPath string) (*Lock, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading lock file: %w", err)
	}

	var l Lock
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrCorrupt, lockPath, err)
	}
	l.stateDir = filepath.Dir(lockPath)
	return &l, nil
}

// List returns every lock in stateDir. Unreadable lock files are skipped.
func List(stateDir string) ([]*Lock, error) {
	entries, err := os.ReadDir(stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading state directory: %w", err)
	}

	var locks []*Lock
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), lockExt) {
			continue
		}
		l, err := loadLockFile(filepath.Join(stateDir, entry.Name()))
		if err != nil || l == nil {
			continue
		}
		locks = append(locks, l)
	}
	return locks, nil
}

// IsLockStale checks if a lock is stale based on PID.
// A lock is stale if the PID that created it is no longer running.
func IsLockStale(l *Lock) bool {
	if l == nil {
		return true
	}
	return !isProcessRunning(l.PID)
}

// isProcessRunning checks if a process with the given PID exists.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds. Send signal 0 to check existence.
	err = process.Signal(syscall.Signal(0))
	return err == nil
}

// writeExclusive writes the lock to a temp file and links it into place,
// failing with os.ErrExist when a lock is already there.
func writeExclusive(lockPath string, l *Lock) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshaling lock: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(lockPath), filepath.Base(lockPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp lock file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp lock file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp lock file: %w", err)
	}

	if err := os.Link(tmpPath, lockPath); err != nil {
		if os.IsExist(err) {
			return os.ErrExist
		}
		return fmt.Errorf("linking lock file: %w", err)
	}
	return nil
}
