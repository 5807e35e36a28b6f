package application

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	// AppName is the application name used for directories and identification
	AppName = "datapull"

	// DatabaseFile is the bbolt file holding config and task history
	DatabaseFile = "datapull.bolt"

	// TaskfileName is the default project task definition file
	TaskfileName = "datapull.yaml"
)

var (
	once   sync.Once
	appDir string
	errDir error
)

// GetApplicationDirectory returns the datapull configuration directory path.
// Linux: ~/.config/datapull (via os.UserConfigDir)
// Windows: C:\Users\{username}\AppData\Local\datapull (via os.UserCacheDir)
func GetApplicationDirectory() (string, error) {
	once.Do(lazyLoad)

	if errDir != nil {
		return "", errDir
	}

	return appDir, nil
}

// DefaultDatabasePath returns the store location inside the application
// directory, creating the directory when needed.
func DefaultDatabasePath() (string, error) {
	dir, err := GetApplicationDirectory()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create application directory: %w", err)
	}

	return filepath.Join(dir, DatabaseFile), nil
}

func lazyLoad() {
	var (
		baseDir string
		err     error
	)

	switch runtime.GOOS {
	case "windows":
		// Windows: use AppData\Local (via UserCacheDir)
		baseDir, err = os.UserCacheDir()
	default:
		baseDir, err = os.UserConfigDir()
	}

	if err != nil {
		errDir = fmt.Errorf("failed to get config directory: %w", err)
		return
	}

	appDir = filepath.Join(baseDir, AppName)
}
