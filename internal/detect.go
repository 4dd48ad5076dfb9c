package internal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// AppName is used for the data and config directory names
const AppName = "chat-session"

// StoragePaths holds the resolved locations for durable state
type StoragePaths struct {
	DataDir   string // base data directory
	ConfigDir string // directory holding config.yaml
}

// DetectStoragePaths detects the data and config directories based on the operating system
func DetectStoragePaths() (StoragePaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return StoragePaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var dataDir, configDir string
	switch runtime.GOOS {
	case "darwin":
		dataDir = filepath.Join(home, "Library/Application Support", AppName)
		configDir = dataDir
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		dataDir = filepath.Join(appData, AppName)
		configDir = dataDir
	default:
		dataDir = filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(home, ".local/share")), AppName)
		configDir = filepath.Join(xdgDir("XDG_CONFIG_HOME", filepath.Join(home, ".config")), AppName)
	}

	return StoragePaths{DataDir: dataDir, ConfigDir: configDir}, nil
}

func xdgDir(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

// GetStoragePaths returns storage paths, using customPath as the data directory if provided
func GetStoragePaths(customPath string) (StoragePaths, error) {
	paths, err := DetectStoragePaths()
	if customPath == "" {
		return paths, err
	}
	if err != nil {
		paths = StoragePaths{}
	}
	paths.DataDir = customPath
	if paths.ConfigDir == "" {
		paths.ConfigDir = customPath
	}
	return paths, nil
}

// DatabasePath returns the path to the SQLite database
func (sp StoragePaths) DatabasePath() string {
	return filepath.Join(sp.DataDir, "sessions.db")
}

// FileStoreDir returns the directory used by the file backend
func (sp StoragePaths) FileStoreDir() string {
	return filepath.Join(sp.DataDir, "sessions")
}

// ConfigFile returns the default config file path
func (sp StoragePaths) ConfigFile() string {
	return filepath.Join(sp.ConfigDir, "config.yaml")
}

// DatabaseExists checks if the SQLite database file exists
func (sp StoragePaths) DatabaseExists() bool {
	_, err := os.Stat(sp.DatabasePath())
	return err == nil
}

// OpenPersister opens the named backend. The returned close function
// releases any underlying resources and is never nil.
func OpenPersister(backend string, paths StoragePaths) (Persister, func() error, error) {
	noop := func() error { return nil }

	switch backend {
	case BackendSQLite, "":
		db, err := OpenDatabase(paths.DatabasePath())
		if err != nil {
			return nil, noop, &StorageError{Backend: BackendSQLite, Op: "open", Err: err}
		}
		return NewSQLitePersister(db), db.Close, nil
	case BackendFile:
		return NewFilePersister(paths.FileStoreDir()), noop, nil
	case BackendMemory:
		return NewMemoryPersister(), noop, nil
	default:
		return nil, noop, &ValidationError{Field: "storage.backend", Reason: fmt.Sprintf("unsupported backend %q (supported: sqlite, file, memory)", backend)}
	}
}

// OpenReadOnlyDatabase opens an existing database without creating it
func OpenReadOnlyDatabase(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}
