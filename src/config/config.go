package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"
	DefaultModeEnvVar = "DEFAULT_MODE"
	DefaultModeRect   = "rectangle"
	DefaultModeLasso  = "lasso"

	BackendAuto = "auto"

	ImageSearchHTTP    = "http"
	ImageSearchBrowser = "browser"

	DefaultHotkey         = "Ctrl+Alt+S"
	DefaultSearchURL      = "https://www.google.com/search?q=%s"
	DefaultImageUploadURL = "https://lens.google.com/v3/upload"
	DefaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"
	DefaultSelectionColor = "#1a73e8"
)

type LoadOptions struct {
	APIKeyPathOverride  string
	DefaultModeOverride string
	SelectorOverride    string
}

type Config struct {
	EnableFileLogging bool
	Hotkey            string
	DefaultMode       string

	Selector       string
	CaptureBackend string
	SelectionColor string

	OCREngine        string
	OCRLanguages     []string
	OCRMinConfidence float64
	OCRMinAlnum      int
	OCRDeadlineSec   int

	APIKey     string
	APIKeyPath string
	Model      string
	Providers  []string

	SearchURL          string
	ImageSearchMode    string
	ImageUploadURL     string
	BrowserPath        string
	BrowserHeadless    bool
	UserAgent          string
	DispatchTimeoutSec int
	MaxQueryChars      int

	CopyText bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use CIRCLE_TO_SEARCH env var as a path to a config file
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),
		DefaultMode:       resolveDefaultModeValue(opts),

		Selector:       resolveBackend(opts.SelectorOverride, os.Getenv("SELECTOR")),
		CaptureBackend: resolveBackend("", os.Getenv("CAPTURE_BACKEND")),
		SelectionColor: getEnvWithDefault("SELECTION_COLOR", DefaultSelectionColor),

		OCREngine:        resolveBackend("", os.Getenv("OCR_ENGINE")),
		OCRLanguages:     splitList(getEnvWithDefault("OCR_LANGUAGES", "eng")),
		OCRMinConfidence: getEnvFloat("OCR_MIN_CONFIDENCE", 0.6, 0, 1),
		OCRMinAlnum:      getEnvInt("OCR_MIN_ALNUM", 3),
		OCRDeadlineSec:   getEnvInt("OCR_DEADLINE_SEC", 20),

		APIKey:     resolveAPIKey(apiKeyPath),
		APIKeyPath: apiKeyPath,
		Model:      os.Getenv("MODEL"),
		Providers:  splitList(os.Getenv("PROVIDERS")),

		SearchURL:          resolveSearchURL(os.Getenv("SEARCH_URL")),
		ImageSearchMode:    resolveImageSearchMode(os.Getenv("IMAGE_SEARCH_MODE")),
		ImageUploadURL:     getEnvWithDefault("IMAGE_UPLOAD_URL", DefaultImageUploadURL),
		BrowserPath:        strings.TrimSpace(os.Getenv("BROWSER_PATH")),
		BrowserHeadless:    strings.ToLower(getEnvWithDefault("BROWSER_HEADLESS", "true")) != "false",
		UserAgent:          getEnvWithDefault("USER_AGENT", DefaultUserAgent),
		DispatchTimeoutSec: getEnvInt("DISPATCH_TIMEOUT_SEC", 30),
		MaxQueryChars:      getEnvInt("MAX_QUERY_CHARS", 500),

		CopyText: strings.ToLower(os.Getenv("COPY_TEXT")) == "true",
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv("CIRCLE_TO_SEARCH"); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return os.Getenv("OPENROUTER_API_KEY")
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns a positive integer from the environment or the default.
func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue, min, max float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f >= min && f <= max {
			return f
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func resolveBackend(override, value string) string {
	if o := strings.ToLower(strings.TrimSpace(override)); o != "" {
		return o
	}
	if v := strings.ToLower(strings.TrimSpace(value)); v != "" {
		return v
	}
	return BackendAuto
}

func resolveSearchURL(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || !strings.Contains(value, "%s") {
		return DefaultSearchURL
	}
	return value
}

func resolveImageSearchMode(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case ImageSearchBrowser:
		return ImageSearchBrowser
	default:
		return ImageSearchHTTP
	}
}

func resolveDefaultMode(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "rect", DefaultModeRect:
		return DefaultModeRect
	case DefaultModeLasso:
		return DefaultModeLasso
	default:
		return DefaultModeRect
	}
}

func resolveDefaultModeValue(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.DefaultModeOverride); override != "" {
		return resolveDefaultMode(override)
	}
	return resolveDefaultMode(os.Getenv(DefaultModeEnvVar))
}
