package logging

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig bounds the size of the on-disk debug log.
type RotationConfig struct {
	// MaxSizeMB is the size a log file may reach before it is rotated.
	// 0 disables rotation.
	MaxSizeMB int
	// MaxBackups is how many rotated files to retain. 0 keeps none.
	MaxBackups int
	// Compress gzips rotated files.
	Compress bool
}

// DefaultRotationConfig matches the config file defaults.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{MaxSizeMB: 10, MaxBackups: 3}
}

// RotatingWriter is an io.Writer over a single file that renames the file
// to a numbered backup once it would exceed the size limit. Backups are
// numbered .1 (newest) through .N (oldest); with compression enabled they
// carry an extra .gz suffix. Safe for concurrent use.
type RotatingWriter struct {
	mu      sync.Mutex
	path    string
	limit   int64 // rotation threshold in bytes, 0 disables rotation
	keep    int
	gzipOld bool

	f    *os.File
	size int64
}

// NewRotatingWriter opens (or creates) the log file at path, creating
// parent directories as needed.
func NewRotatingWriter(path string, config RotationConfig) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		path:    path,
		limit:   int64(config.MaxSizeMB) << 20,
		keep:    config.MaxBackups,
		gzipOld: config.Compress,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

// open opens the live log file for appending and records its current size.
// Callers hold rw.mu (or are the constructor).
func (rw *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(rw.path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	rw.f = f
	rw.size = info.Size()
	return nil
}

// Write appends p, rotating first when the write would push the file past
// the limit. A failed rotation never drops log data: the warning goes to
// stderr and the write lands in the oversized current file.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.f == nil {
		return 0, fmt.Errorf("log file %s is closed", rw.path)
	}

	if rw.limit > 0 && rw.size+int64(len(p)) > rw.limit {
		if err := rw.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "tandem: log rotation failed: %v\n", err)
			if rw.f == nil {
				return 0, fmt.Errorf("log file %s is closed", rw.path)
			}
		}
	}

	n, err := rw.f.Write(p)
	rw.size += int64(n)
	return n, err
}

// rotate shifts existing backups toward older numbers, renames the live
// file to .1, and reopens a fresh one. Callers hold rw.mu.
func (rw *RotatingWriter) rotate() error {
	if err := rw.f.Close(); err != nil {
		return fmt.Errorf("close for rotation: %w", err)
	}
	rw.f = nil

	rw.shiftBackups()

	if rw.keep <= 0 {
		if err := os.Remove(rw.path); err != nil {
			if reopenErr := rw.open(); reopenErr != nil {
				return fmt.Errorf("remove log file: %v, reopen: %w", err, reopenErr)
			}
			return fmt.Errorf("remove log file: %w", err)
		}
		return rw.open()
	}

	newest := rw.backupPath(1)
	if err := os.Rename(rw.path, newest); err != nil {
		if reopenErr := rw.open(); reopenErr != nil {
			return fmt.Errorf("rename log file: %v, reopen: %w", err, reopenErr)
		}
		return fmt.Errorf("rename log file: %w", err)
	}

	if rw.gzipOld {
		if err := gzipFile(newest); err != nil {
			fmt.Fprintf(os.Stderr, "tandem: compressing %s failed: %v\n", newest, err)
		}
	}

	return rw.open()
}

// shiftBackups renumbers backups up by one, dropping whichever falls past
// the retention limit. Both plain and gzipped forms are handled.
func (rw *RotatingWriter) shiftBackups() {
	if rw.keep <= 0 {
		removeBackup(rw.backupPath(1))
		return
	}

	removeBackup(rw.backupPath(rw.keep))
	for n := rw.keep - 1; n >= 1; n-- {
		renameBackup(rw.backupPath(n), rw.backupPath(n+1))
	}
}

func (rw *RotatingWriter) backupPath(n int) string {
	return fmt.Sprintf("%s.%d", rw.path, n)
}

func removeBackup(path string) {
	os.Remove(path)
	os.Remove(path + ".gz")
}

func renameBackup(oldPath, newPath string) {
	if _, err := os.Stat(oldPath + ".gz"); err == nil {
		os.Rename(oldPath+".gz", newPath+".gz")
		return
	}
	if _, err := os.Stat(oldPath); err == nil {
		os.Rename(oldPath, newPath)
	}
}

// gzipFile replaces path with path.gz. The original is removed only after
// the compressed copy is fully written.
func gzipFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	gzPath := path + ".gz"
	out, err := os.Create(gzPath)
	if err != nil {
		return err
	}

	zw := gzip.NewWriter(out)
	_, werr := zw.Write(data)
	if cerr := zw.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = out.Close()
	} else {
		out.Close()
	}
	if werr != nil {
		os.Remove(gzPath)
		return werr
	}

	return os.Remove(path)
}

// Sync flushes the live log file to disk.
func (rw *RotatingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.f == nil {
		return nil
	}
	return rw.f.Sync()
}

// Close syncs and closes the live log file. Subsequent writes fail;
// subsequent closes are no-ops.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.f == nil {
		return nil
	}
	f := rw.f
	rw.f = nil

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync log file: %w", err)
	}
	return f.Close()
}

// CurrentSize returns the size in bytes of the live log file.
func (rw *RotatingWriter) CurrentSize() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.size
}

// FilePath returns the live log file path.
func (rw *RotatingWriter) FilePath() string {
	return rw.path
}
