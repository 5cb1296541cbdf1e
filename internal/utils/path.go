package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// AppDirName is the directory name used under the platform config and data roots.
const AppDirName = "fqwb"

// dictionaryExts are the file extensions that mark a directory as a data dir.
var dictionaryExts = []string{".dic", ".txt", ".bin"}

// PathResolver provides robust path resolution for the fqwb binaries
type PathResolver struct {
	executablePath string
	executableDir  string
	homeDir        string
	configDir      string
	stateDir       string
}

// NewPathResolver creates a new path resolver that determines the executable location
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	// Resolve any symlinks to get the actual binary location
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executablePath: execPath,
		executableDir:  filepath.Dir(execPath),
		homeDir:        homeDir,
		configDir:      getConfigDir(homeDir),
		stateDir:       getStateDir(homeDir),
	}

	log.Debugf("PathResolver initialized: exec=%s, configDir=%s, stateDir=%s",
		execPath, pr.configDir, pr.stateDir)

	return pr, nil
}

// getConfigDir returns the appropriate config directory for the platform
func getConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, ".config", AppDirName)
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, AppDirName)
		}
		return filepath.Join(homeDir, ".config", AppDirName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppDirName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", AppDirName)
	default:
		return filepath.Join(homeDir, "."+AppDirName)
	}
}

// getStateDir returns where learned state (selection history) lives.
func getStateDir(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, AppDirName)
		}
		return filepath.Join(homeDir, ".local", "share", AppDirName)
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, AppDirName)
		}
	}
	return getConfigDir(homeDir)
}

// GetDataDir resolves the directory holding dictionary files.
// It tries multiple locations in order of preference:
// 1. User-specified path (if absolute)
// 2. Relative to executable directory
// 3. Relative to current working directory
// 4. data/ next to the executable, its parent, or the config dir
func (pr *PathResolver) GetDataDir(userSpecifiedPath string) (string, error) {
	candidates := pr.getDataDirCandidates(userSpecifiedPath)
	for _, path := range candidates {
		if IsValidDataDir(path) {
			log.Debugf("Found valid data directory: %s", path)
			return path, nil
		}
		log.Debugf("Data directory candidate not valid: %s", path)
	}

	// Nothing found: return the most likely path for error reporting
	if filepath.IsAbs(userSpecifiedPath) {
		return userSpecifiedPath, nil
	}
	return filepath.Join(pr.executableDir, userSpecifiedPath), nil
}

// IsValidDataDir checks if a directory contains at least one dictionary file
func IsValidDataDir(path string) bool {
	if stat, err := os.Stat(path); err != nil || !stat.IsDir() {
		return false
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range dictionaryExts {
			if ext == want {
				return true
			}
		}
	}
	return false
}

func (pr *PathResolver) getDataDirCandidates(userSpecifiedPath string) []string {
	var candidates []string

	if filepath.IsAbs(userSpecifiedPath) {
		candidates = append(candidates, userSpecifiedPath)
	}

	candidates = append(candidates, filepath.Join(pr.executableDir, userSpecifiedPath))

	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, userSpecifiedPath))
	}

	return append(candidates,
		filepath.Join(pr.executableDir, "data"),
		filepath.Join(filepath.Dir(pr.executableDir), "data"),
		filepath.Join(pr.configDir, "data"),
	)
}

// GetConfigPath returns the full path for a config file.
// Falls back to ~/.fqwb, the temp dir and the executable dir when the
// config dir is not writable.
func (pr *PathResolver) GetConfigPath(filename string) (string, error) {
	return pr.writablePath(pr.configDir, filename)
}

// GetStatePath returns the full path for a state file such as the history store.
func (pr *PathResolver) GetStatePath(filename string) (string, error) {
	return pr.writablePath(pr.stateDir, filename)
}

func (pr *PathResolver) writablePath(preferred, filename string) (string, error) {
	if ensureWritableDir(preferred) {
		return filepath.Join(preferred, filename), nil
	}

	fallbackDirs := []string{
		filepath.Join(pr.homeDir, "."+AppDirName),
		filepath.Join(os.TempDir(), AppDirName),
		pr.executableDir,
	}
	for _, dir := range fallbackDirs {
		if ensureWritableDir(dir) {
			path := filepath.Join(dir, filename)
			log.Warnf("Using fallback location: %s", path)
			return path, nil
		}
	}

	tempPath := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary file: %s", tempPath)
	return tempPath, nil
}

// ensureWritableDir creates the directory if it doesn't exist and tests writability
func ensureWritableDir(dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Debugf("Cannot create directory %s: %v", dir, err)
		return false
	}
	return testWriteAccess(dir)
}

// GetRuntimeInfo returns debug information about the current runtime environment
func (pr *PathResolver) GetRuntimeInfo() map[string]string {
	cwd, _ := os.Getwd()

	info := map[string]string{
		"executable_path": pr.executablePath,
		"executable_dir":  pr.executableDir,
		"current_dir":     cwd,
		"home_dir":        pr.homeDir,
		"config_dir":      pr.configDir,
		"state_dir":       pr.stateDir,
		"os":              runtime.GOOS,
		"arch":            runtime.GOARCH,
	}

	for _, envVar := range []string{"HOME", "XDG_CONFIG_HOME", "XDG_DATA_HOME", "APPDATA", "LOCALAPPDATA"} {
		if value := os.Getenv(envVar); value != "" {
			info["env_"+strings.ToLower(envVar)] = value
		}
	}

	return info
}
