package actionlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/roach88/transitions/internal/ir"
)

// DirName is the log directory created beside the store file.
const DirName = "logs"

// Suffix is the file name suffix of every record file.
const Suffix = ".log.json"

const filePerm = 0o644

// ErrExists is returned by Append when a record with the same id is
// already on disk.
var ErrExists = errors.New("record already exists")

// Log is a directory of action record files.
type Log struct {
	dir string
}

// Position identifies the newest record in a log.
type Position struct {
	Seq        int64
	RecordedAt time.Time
}

// Open returns the log that belongs to the store file at dbPath, creating
// the directory if needed.
func Open(dbPath string) (*Log, error) {
	return OpenDir(filepath.Join(filepath.Dir(dbPath), DirName))
}

// OpenDir returns the log stored in dir, creating it if needed.
func OpenDir(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &Log{dir: dir}, nil
}

// Dir returns the log directory.
func (l *Log) Dir() string {
	return l.dir
}

// PathFor returns the file path a record with the given id is stored at.
func (l *Log) PathFor(id string) string {
	return filepath.Join(l.dir, id+Suffix)
}

// Append writes rec to its own file and returns the file path.
//
// rec.ID must be set. The digest is computed over every other field and
// stored in rec.Digest, replacing any digest the caller set. Append never
// overwrites an existing record.
func (l *Log) Append(rec *ir.ActionRecord) (string, error) {
	if rec.ID == "" {
		return "", fmt.Errorf("append record: missing id")
	}

	digest, err := ir.RecordDigest(*rec)
	if err != nil {
		return "", fmt.Errorf("append record %s: %w", rec.ID, err)
	}
	rec.Digest = digest

	data, err := json.MarshalIndent(*rec, "", " ")
	if err != nil {
		return "", fmt.Errorf("append record %s: %w", rec.ID, err)
	}
	data = append(data, '\n')

	path := l.PathFor(rec.ID)
	if _, err := os.Lstat(path); err == nil {
		return "", fmt.Errorf("append record %s: %w", rec.ID, ErrExists)
	}

	if err := WriteAtomic(path, data, filePerm); err != nil {
		return "", fmt.Errorf("append record %s: %w", rec.ID, err)
	}
	return path, nil
}

// Discard removes a record written by Append. It is used when the store
// transaction the record belongs to fails to commit.
func (l *Log) Discard(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("discard record: %w", err)
	}
	return nil
}

// List returns the paths of every record file, sorted by file name.
func (l *Log) List() ([]string, error) {
	return ListDir(l.dir)
}

// ListDir returns the record files in dir sorted by file name.
// Temp files and files without the record suffix are ignored.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	paths := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Suffix) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Read returns the raw bytes of one record file.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return data, nil
}

// Last returns the position of the newest record whose file name carries a
// record id. ok is false when the log holds no such record.
func (l *Log) Last() (pos Position, ok bool, err error) {
	paths, err := l.List()
	if err != nil {
		return Position{}, false, err
	}

	for i := len(paths) - 1; i >= 0; i-- {
		id := strings.TrimSuffix(filepath.Base(paths[i]), Suffix)
		at, seq, err := ir.ParseRecordID(id)
		if err != nil {
			continue
		}
		return Position{Seq: seq, RecordedAt: at}, true, nil
	}
	return Position{}, false, nil
}

// WriteAtomic writes data to path using temp file + rename, so readers
// never observe a partially written file.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".transitions-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	return nil
}
