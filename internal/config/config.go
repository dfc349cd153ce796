package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/scrypt"
)

const (
	configDirName  = "nexiatray"
	configFileName = "settings.enc"
	saltSize       = 16
	nonceSize      = 12
)

// Defaults applied to any setting left empty.
const (
	DefaultBackendURL        = "http://localhost:9090"
	DefaultRequestTimeoutSec = 30
	DefaultMaxAudioBytes     = 10 << 20
	DefaultIPCAddr           = "127.0.0.1:47864"
	DefaultHTTPAddr          = "127.0.0.1:47865"
	DefaultDashboardURL      = "http://localhost:3000"
	DefaultRedisKey          = "nexiatray:audit"
	DefaultStatusRefreshSec  = 60
)

// Settings is the persisted relay configuration.
type Settings struct {
	BackendURL        string   `json:"backendUrl" yaml:"backend_url" toml:"backend_url"`
	BackendToken      string   `json:"backendToken,omitempty" yaml:"backend_token" toml:"backend_token"`
	RequestTimeoutSec int      `json:"requestTimeoutSec" yaml:"request_timeout_sec" toml:"request_timeout_sec"`
	AllowedEndpoints  []string `json:"allowedEndpoints,omitempty" yaml:"allowed_endpoints" toml:"allowed_endpoints"`
	MaxAudioBytes     int64    `json:"maxAudioBytes" yaml:"max_audio_bytes" toml:"max_audio_bytes"`
	IPCAddr           string   `json:"ipcAddr" yaml:"ipc_addr" toml:"ipc_addr"`
	HTTPAddr          string   `json:"httpAddr" yaml:"http_addr" toml:"http_addr"`
	DashboardURL      string   `json:"dashboardUrl" yaml:"dashboard_url" toml:"dashboard_url"`
	RedisAddr         string   `json:"redisAddr,omitempty" yaml:"redis_addr" toml:"redis_addr"`
	RedisKey          string   `json:"redisKey,omitempty" yaml:"redis_key" toml:"redis_key"`
	StatusRefreshSec  int      `json:"statusRefreshSec" yaml:"status_refresh_sec" toml:"status_refresh_sec"`
	UpdatedUTC        string   `json:"updatedUtc,omitempty" yaml:"-" toml:"-"`
}

// Default returns settings populated with the built-in defaults.
func Default() Settings {
	return Settings{
		BackendURL:        DefaultBackendURL,
		RequestTimeoutSec: DefaultRequestTimeoutSec,
		MaxAudioBytes:     DefaultMaxAudioBytes,
		IPCAddr:           DefaultIPCAddr,
		HTTPAddr:          DefaultHTTPAddr,
		DashboardURL:      DefaultDashboardURL,
		RedisKey:          DefaultRedisKey,
		StatusRefreshSec:  DefaultStatusRefreshSec,
	}
}

// Normalize trims values and restores defaults for empty or non-positive fields.
func (s *Settings) Normalize() {
	def := Default()
	s.BackendURL = strings.TrimRight(strings.TrimSpace(s.BackendURL), "/")
	if s.BackendURL == "" {
		s.BackendURL = def.BackendURL
	}
	s.BackendToken = strings.TrimSpace(s.BackendToken)
	if s.RequestTimeoutSec <= 0 {
		s.RequestTimeoutSec = def.RequestTimeoutSec
	}
	if s.MaxAudioBytes <= 0 {
		s.MaxAudioBytes = def.MaxAudioBytes
	}
	s.IPCAddr = firstNonEmpty(s.IPCAddr, def.IPCAddr)
	s.HTTPAddr = firstNonEmpty(s.HTTPAddr, def.HTTPAddr)
	s.DashboardURL = firstNonEmpty(s.DashboardURL, def.DashboardURL)
	s.RedisAddr = strings.TrimSpace(s.RedisAddr)
	s.RedisKey = firstNonEmpty(s.RedisKey, def.RedisKey)
	if s.StatusRefreshSec <= 0 {
		s.StatusRefreshSec = def.StatusRefreshSec
	}

	allowed := s.AllowedEndpoints[:0]
	for _, prefix := range s.AllowedEndpoints {
		if trimmed := strings.TrimSpace(prefix); trimmed != "" {
			allowed = append(allowed, trimmed)
		}
	}
	if len(allowed) == 0 {
		allowed = nil
	}
	s.AllowedEndpoints = allowed
}

// RequestTimeout returns the backend request timeout.
func (s Settings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSec) * time.Second
}

// StatusRefresh returns the tray tooltip refresh interval.
func (s Settings) StatusRefresh() time.Duration {
	return time.Duration(s.StatusRefreshSec) * time.Second
}

// Path returns the resolved settings file path.
func Path() (string, error) {
	if custom := os.Getenv("NEXIATRAY_CONFIG_PATH"); custom != "" {
		if err := os.MkdirAll(filepath.Dir(custom), 0o700); err != nil {
			return "", fmt.Errorf("ensure custom config directory: %w", err)
		}
		return custom, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine user config dir: %w", err)
	}

	dir := filepath.Join(base, configDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("ensure config directory: %w", err)
	}

	return filepath.Join(dir, configFileName), nil
}

// Load reads the encrypted settings using the provided passphrase. A missing
// file yields the defaults.
func Load(passphrase string) (*Settings, error) {
	if passphrase == "" {
		return nil, errors.New("missing passphrase for configuration decryption")
	}

	path, err := Path()
	if err != nil {
		return nil, err
	}

	settings := Default()
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	data, err := decrypt(raw, passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypt config: %w", err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	settings.Normalize()
	return &settings, nil
}

// Save persists the settings encrypted with the provided passphrase.
func Save(settings *Settings, passphrase string) error {
	if passphrase == "" {
		return errors.New("missing passphrase for configuration encryption")
	}
	if settings == nil {
		return errors.New("nil settings")
	}

	settings.UpdatedUTC = time.Now().UTC().Format(time.RFC3339)
	raw, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	data, err := encrypt(raw, passphrase)
	if err != nil {
		return fmt.Errorf("encrypt config: %w", err)
	}

	path, err := Path()
	if err != nil {
		return err
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("write encrypted config: %w", err)
	}

	return os.Rename(tempFile, path)
}

// Resolve layers the stored settings, an optional YAML/TOML overlay file and
// the NEXIATRAY_* environment, in that order. Without a passphrase the
// encrypted store is skipped and layering starts from the defaults.
func Resolve(passphrase, overlayPath string) (*Settings, error) {
	settings := Default()
	if passphrase != "" {
		stored, err := Load(passphrase)
		if err != nil {
			return nil, err
		}
		settings = *stored
	}
	if strings.TrimSpace(overlayPath) != "" {
		if err := LoadFile(overlayPath, &settings); err != nil {
			return nil, err
		}
	}
	ApplyEnv(&settings, os.Getenv)
	settings.Normalize()
	return &settings, nil
}

func encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

func decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	if len(ciphertext) < saltSize+nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	salt := ciphertext[:saltSize]
	nonce := ciphertext[saltSize : saltSize+nonceSize]
	payload := ciphertext[saltSize+nonceSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, payload, nil)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	const (
		keyLength = 32
		n         = 1 << 15
		r         = 8
		p         = 1
	)

	key, err := scrypt.Key([]byte(passphrase), salt, n, r, p, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}
