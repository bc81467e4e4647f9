package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	// Set test environment variables
	os.Setenv("OPENROUTER_API_KEY", "test_api_key")
	os.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))
	os.Setenv("MODEL", "test_model")
	os.Setenv("ENABLE_FILE_LOGGING", "true")
	os.Setenv("HOTKEY", "Ctrl+Shift+T")

	defer func() {
		// Clean up environment variables
		os.Unsetenv("OPENROUTER_API_KEY")
		os.Unsetenv(APIKeyPathEnvVar)
		os.Unsetenv("MODEL")
		os.Unsetenv("ENABLE_FILE_LOGGING")
		os.Unsetenv("HOTKEY")
	}()

	// Load the configuration
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	// Check the configuration values
	if cfg.APIKey != "test_api_key" {
		t.Errorf("Expected APIKey to be 'test_api_key', got '%s'", cfg.APIKey)
	}
	if cfg.Model != "test_model" {
		t.Errorf("Expected Model to be 'test_model', got '%s'", cfg.Model)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging to be true, got %v", cfg.EnableFileLogging)
	}
	if cfg.Hotkey != "Ctrl+Shift+T" {
		t.Errorf("Expected Hotkey to be 'Ctrl+Shift+T', got '%s'", cfg.Hotkey)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))
	for _, key := range []string{"HOTKEY", "SELECTOR", "CAPTURE_BACKEND", "OCR_ENGINE", "OCR_MIN_CONFIDENCE",
		"OCR_LANGUAGES", "SEARCH_URL", "IMAGE_SEARCH_MODE", "DISPATCH_TIMEOUT_SEC", "BROWSER_HEADLESS", "COPY_TEXT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Hotkey != DefaultHotkey {
		t.Errorf("Expected default hotkey %q, got %q", DefaultHotkey, cfg.Hotkey)
	}
	if cfg.Selector != BackendAuto || cfg.CaptureBackend != BackendAuto || cfg.OCREngine != BackendAuto {
		t.Errorf("Expected auto backends, got selector=%q capture=%q ocr=%q", cfg.Selector, cfg.CaptureBackend, cfg.OCREngine)
	}
	if cfg.OCRMinConfidence != 0.6 {
		t.Errorf("Expected OCRMinConfidence=0.6, got %v", cfg.OCRMinConfidence)
	}
	if len(cfg.OCRLanguages) != 1 || cfg.OCRLanguages[0] != "eng" {
		t.Errorf("Expected OCRLanguages=[eng], got %v", cfg.OCRLanguages)
	}
	if cfg.SearchURL != DefaultSearchURL {
		t.Errorf("Expected SearchURL=%q, got %q", DefaultSearchURL, cfg.SearchURL)
	}
	if cfg.ImageSearchMode != ImageSearchHTTP {
		t.Errorf("Expected ImageSearchMode=http, got %q", cfg.ImageSearchMode)
	}
	if cfg.DispatchTimeoutSec != 30 {
		t.Errorf("Expected DispatchTimeoutSec=30, got %d", cfg.DispatchTimeoutSec)
	}
	if !cfg.BrowserHeadless {
		t.Error("Expected BrowserHeadless=true by default")
	}
	if cfg.CopyText {
		t.Error("Expected CopyText=false by default")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))
	t.Setenv("OCR_MIN_CONFIDENCE", "1.5")
	t.Setenv("DISPATCH_TIMEOUT_SEC", "-4")
	t.Setenv("SEARCH_URL", "https://example.com/no-placeholder")
	t.Setenv("IMAGE_SEARCH_MODE", "carrier-pigeon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OCRMinConfidence != 0.6 {
		t.Errorf("Expected out-of-range confidence to fall back to 0.6, got %v", cfg.OCRMinConfidence)
	}
	if cfg.DispatchTimeoutSec != 30 {
		t.Errorf("Expected negative timeout to fall back to 30, got %d", cfg.DispatchTimeoutSec)
	}
	if cfg.SearchURL != DefaultSearchURL {
		t.Errorf("Expected template without %%s to fall back, got %q", cfg.SearchURL)
	}
	if cfg.ImageSearchMode != ImageSearchHTTP {
		t.Errorf("Expected unknown mode to fall back to http, got %q", cfg.ImageSearchMode)
	}
}

func TestAPIKeyFileTakesPrecedence(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyFile, []byte("  file_key\n"), 0600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env_key")

	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: keyFile})
	if err != nil {
		t.Fatalf("LoadWithOptions failed: %v", err)
	}
	if cfg.APIKey != "file_key" {
		t.Errorf("Expected APIKey from file, got %q", cfg.APIKey)
	}
	if cfg.APIKeyPath != keyFile {
		t.Errorf("Expected APIKeyPath=%q, got %q", keyFile, cfg.APIKeyPath)
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))
	t.Setenv(DefaultModeEnvVar, "rectangle")
	t.Setenv("SELECTOR", "slop")

	cfg, err := LoadWithOptions(LoadOptions{DefaultModeOverride: "lasso", SelectorOverride: "Overlay"})
	if err != nil {
		t.Fatalf("LoadWithOptions failed: %v", err)
	}
	if cfg.DefaultMode != DefaultModeLasso {
		t.Errorf("Expected DefaultMode=lasso, got %q", cfg.DefaultMode)
	}
	if cfg.Selector != "overlay" {
		t.Errorf("Expected Selector=overlay, got %q", cfg.Selector)
	}
}

func TestResolveDefaultMode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultModeRect},
		{"rect", DefaultModeRect},
		{"RECTANGLE", DefaultModeRect},
		{" lasso ", DefaultModeLasso},
		{"circle", DefaultModeRect},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := resolveDefaultMode(tt.in); got != tt.want {
				t.Errorf("resolveDefaultMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
