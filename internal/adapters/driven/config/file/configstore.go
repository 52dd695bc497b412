package file

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/hirelens-labs/hirelens/internal/core/ports/driven"
	"github.com/hirelens-labs/hirelens/internal/logger"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	// configFileName is the file managed inside the config directory.
	configFileName = "config.toml"

	// envPrefix namespaces environment overrides.
	envPrefix = "HIRELENS_"
)

// starterConfig is written on first run so users have a commented template
// to edit. Every value is commented out, so the parsed result is empty and
// environment overrides behave the same whether or not the template exists.
const starterConfig = `# HireLens configuration.
#
# Every key can be overridden with a HIRELENS_* environment variable:
# dots become underscores, so "server.addr" is HIRELENS_SERVER_ADDR.

# [server]
# addr = ":8080"
# token = ""

# [storage]
# postgres_url = ""
# data_dir = ""

# [probe]
# concurrency = 5
# rate_per_second = 4.0

# [scheduler]
# enabled = true

# [scheduler.company-discovery]
# enabled = true
# interval_hours = 168

# [scheduler.priority-refresh]
# enabled = true
# interval_hours = 24

# [sources.seedfile]
# path = ""

# [sources.githuborgs]
# token = ""
# query = ""

# [sources.websearch]
# api_key = ""
# cx = ""

# [sources.fundingdb]
# api_key = ""

# [sources.launchdirectory]
# base_url = ""

# [sources.startupjobs]
# base_url = ""
`

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Configuration is stored in a TOML file within the hirelens config directory.
// Environment variables prefixed with HIRELENS_ take precedence over file
// values; they arrive as strings, so the typed getters parse them.
type ConfigStore struct {
	mu        sync.RWMutex
	filePath  string
	data      map[string]any
	watcher   *fsnotify.Watcher
	callbacks []func()
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.hirelens/config.toml. A commented
// starter template is written when no config file exists yet.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".hirelens")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, configFileName),
		data:     make(map[string]any),
	}

	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		if err := os.WriteFile(s.filePath, []byte(starterConfig), 0600); err != nil {
			return nil, err
		}
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// envKey maps a dotted config key to its environment override name.
// "sources.githuborgs.token" becomes "HIRELENS_SOURCES_GITHUBORGS_TOKEN".
func envKey(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Get retrieves a configuration value by key.
// An environment override wins over the file value and is returned as the
// raw string.
func (s *ConfigStore) Get(key string) (any, bool) {
	if val, ok := os.LookupEnv(envKey(key)); ok {
		return val, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}

	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	// TOML integers are parsed as int64; environment overrides as strings.
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}

	switch v := val.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false
		}
		return b
	default:
		return false
	}
}

// GetFloat retrieves a float configuration value.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// GetStringSlice retrieves a string slice configuration value.
// Environment overrides are split on commas.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, ok := s.Get(key)
	if !ok {
		return nil
	}

	// TOML arrays are parsed as []any
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	case string:
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) == 0 {
			return nil
		}
		return result
	default:
		return nil
	}
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.data)
	if err != nil {
		return err
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet - that's fine, start empty
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return err
	}

	if loaded == nil {
		loaded = make(map[string]any)
	}

	// Flatten nested maps into dot-notation keys for easier access
	s.data = flattenMap(loaded, "")
	return nil
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			// Recursively flatten nested maps
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// Watch registers a callback invoked after the config file changes on disk
// and has been reloaded. The first call starts a watcher on the config
// directory; watching the directory rather than the file survives editors
// that replace the file via rename.
func (s *ConfigStore) Watch(onChange func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callbacks = append(s.callbacks, onChange)
	if s.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		_ = watcher.Close()
		return err
	}
	s.watcher = watcher

	go s.watchLoop(watcher)
	return nil
}

// watchLoop reloads the file and notifies subscribers on every change.
// Exits when the watcher is closed.
func (s *ConfigStore) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			// A removed config keeps its last loaded values; only writes
			// and replacements trigger a reload.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.Load(); err != nil {
				logger.Warn("Config reload failed: %v", err)
				continue
			}
			logger.Debug("Config file changed (%s), reloaded", event.Op)
			s.notify()
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// notify invokes subscriber callbacks outside the store lock, so a callback
// may itself read or update configuration.
func (s *ConfigStore) notify() {
	s.mu.RLock()
	callbacks := make([]func(), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.RUnlock()

	for _, cb := range callbacks {
		cb()
	}
}

// Close stops the change watcher, if one was started.
func (s *ConfigStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
