package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"letraz-jobboard/internal/logging/types"
)

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	FilePath    string      `yaml:"file_path"`
	Format      string      `yaml:"format"`        // json or text
	MaxSize     int64       `yaml:"max_size"`      // bytes; 0 disables rotation
	MaxBackups  int         `yaml:"max_backups"`   // rotated files kept as path.1 .. path.N
	CreateDirs  bool        `yaml:"create_dirs"`   // create parent directories
	FileMode    os.FileMode `yaml:"file_mode"`     // defaults to 0644
	SyncOnWrite bool        `yaml:"sync_on_write"` // fsync after every entry
}

// FileAdapter appends entries to a file with size-based rotation
type FileAdapter struct {
	name   string
	config FileConfig
	file   *os.File
	size   int64
	mu     sync.Mutex
}

// NewFileAdapter opens (or creates) the log file
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for file adapter")
	}
	if config.FileMode == 0 {
		config.FileMode = 0o644
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = 5
	}
	config.Format = strings.ToLower(config.Format)

	if config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directories: %w", err)
		}
	}

	a := &FileAdapter{name: name, config: config}
	if err := a.open(); err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return a, nil
}

func (a *FileAdapter) Write(entry *types.LogEntry) error {
	line, err := formatEntry(entry, a.config.Format, false)
	if err != nil {
		return fmt.Errorf("failed to format log entry: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.config.MaxSize > 0 && a.size+int64(len(line)+1) > a.config.MaxSize && a.size > 0 {
		if err := a.rotate(); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	n, err := a.file.WriteString(line + "\n")
	a.size += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write to log file: %w", err)
	}
	if a.config.SyncOnWrite {
		return a.file.Sync()
	}
	return nil
}

func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

func (a *FileAdapter) Name() string { return a.name }

func (a *FileAdapter) open() error {
	f, err := os.OpenFile(a.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, a.config.FileMode)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	a.file = f
	a.size = info.Size()
	return nil
}

// rotate shifts path.N-1 -> path.N ... path -> path.1 and reopens path
func (a *FileAdapter) rotate() error {
	if err := a.file.Close(); err != nil {
		return err
	}

	path := a.config.FilePath
	_ = os.Remove(fmt.Sprintf("%s.%d", path, a.config.MaxBackups))
	for i := a.config.MaxBackups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", path, i)
		if _, err := os.Stat(src); err == nil {
			if err := os.Rename(src, fmt.Sprintf("%s.%d", path, i+1)); err != nil {
				return err
			}
		}
	}
	if err := os.Rename(path, path+".1"); err != nil {
		return err
	}
	return a.open()
}
