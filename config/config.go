// Package config is the application's key-value settings store: viper
// over an optional YAML file with environment overrides, hot reload,
// and change-notification fan-out. The API key can additionally come
// from a .env file next to the executable.
package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"vista-ocr/backend"
	"vista-ocr/prompt"
)

// Logical configuration keys.
const (
	KeyBackend                   = "backend"
	KeyOutputFormat              = "output_format"
	KeyPrettyFormatting          = "pretty_formatting"
	KeyOriginalFormatting        = "original_formatting"
	KeyOutputLanguage            = "output_language"
	KeyLatexMath                 = "latex_math"
	KeySpellCheck                = "spell_check"
	KeyLowConfidenceHighlighting = "low_confidence_highlighting"
	KeyContextualGrouping        = "contextual_grouping"
	KeyAccessibilityAltText      = "accessibility_alt_text"
	KeySmartContext              = "smart_context"
	KeyCustomPrompt              = "custom_prompt"
	KeyCustomPromptEnabled       = "custom_prompt_enabled"
	KeyResolutionLimitEnabled    = "resolution_limit_enabled"
	KeyMaxImageWidth             = "max_image_width"
	KeyMaxImageHeight            = "max_image_height"
	KeyHotkey                    = "hotkey"
	KeyEnableFileLogging         = "enable_file_logging"
	KeyGeminiAPIKey              = "gemini_api_key"
	KeyLocalRecognitionLevel     = "local_recognition_level"
	KeyLocalLanguages            = "local_languages"
	KeyLocalLanguageCorrection   = "local_language_correction"
	KeyLocalCustomWords          = "local_custom_words"
)

const apiKeyEnvVar = "GEMINI_API_KEY"

// Store handles loading, reading, writing and hot-reloading settings.
type Store struct {
	mu        sync.RWMutex
	v         *viper.Viper
	callbacks []func(Snapshot)
}

// NewStore creates a store, loading cfgFile when given, otherwise
// searching the default locations. A missing config file is not an
// error; defaults apply.
func NewStore(cfgFile string) (*Store, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VISTA")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.vista")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile == "" {
			return nil, err
		}
		if cfgFile != "" {
			if _, statErr := os.Stat(cfgFile); statErr == nil {
				return nil, err
			}
		}
	}

	loadDotenv()

	return &Store{v: v}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackend, string(backend.GeminiFlash))
	v.SetDefault(KeyOutputFormat, prompt.FormatPlainText)
	v.SetDefault(KeyPrettyFormatting, false)
	v.SetDefault(KeyOriginalFormatting, true)
	v.SetDefault(KeyOutputLanguage, "")
	v.SetDefault(KeyLatexMath, true)
	v.SetDefault(KeySpellCheck, false)
	v.SetDefault(KeyLowConfidenceHighlighting, false)
	v.SetDefault(KeyContextualGrouping, false)
	v.SetDefault(KeyAccessibilityAltText, false)
	v.SetDefault(KeySmartContext, false)
	v.SetDefault(KeyCustomPrompt, "")
	v.SetDefault(KeyCustomPromptEnabled, false)
	v.SetDefault(KeyResolutionLimitEnabled, false)
	v.SetDefault(KeyMaxImageWidth, 4000)
	v.SetDefault(KeyMaxImageHeight, 4000)
	v.SetDefault(KeyHotkey, "Ctrl+Alt+Q")
	v.SetDefault(KeyEnableFileLogging, false)
	v.SetDefault(KeyGeminiAPIKey, "")
	v.SetDefault(KeyLocalRecognitionLevel, string(backend.RecognitionAccurate))
	v.SetDefault(KeyLocalLanguages, []string{})
	v.SetDefault(KeyLocalLanguageCorrection, true)
	v.SetDefault(KeyLocalCustomWords, []string{})
}

// loadDotenv pulls a .env from the executable directory or the working
// directory, mirroring the usual deployment layout.
func loadDotenv() {
	paths := []string{".env"}
	if execPath, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(execPath), ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Get returns the raw value for a logical key.
func (s *Store) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.Get(key)
}

// Set writes a value for a logical key. The pretty/original formatting
// toggles are mutually exclusive: enabling either disables the other
// here, at the configuration layer.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)
	if on, ok := value.(bool); ok && on {
		switch key {
		case KeyPrettyFormatting:
			s.v.Set(KeyOriginalFormatting, false)
		case KeyOriginalFormatting:
			s.v.Set(KeyPrettyFormatting, false)
		}
	}
}

// Save persists the current settings to the config file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.v.WriteConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return s.v.SafeWriteConfig()
		}
		return err
	}
	return nil
}

// Snapshot is a typed, consistent read of the store, taken once per
// capture at dispatch time.
type Snapshot struct {
	Backend                backend.ID
	OutputFormat           string
	PrettyFormatting       bool
	OriginalFormatting     bool
	OutputLanguage         string
	LatexMath              bool
	SpellCheck             bool
	LowConfidence          bool
	ContextualGrouping     bool
	AccessibilityAltText   bool
	SmartContext           bool
	CustomPrompt           string
	CustomPromptEnabled    bool
	ResolutionLimitEnabled bool
	MaxImageWidth          int
	MaxImageHeight         int
	Hotkey                 string
	EnableFileLogging      bool
	APIKey                 string

	LocalRecognitionLevel   backend.RecognitionLevel
	LocalLanguages          []string
	LocalLanguageCorrection bool
	LocalCustomWords        []string
}

// Snapshot reads the current settings. A config file hand-edited to
// enable both formatting toggles is normalized here: the original-
// formatting default wins.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := backend.ParseID(s.v.GetString(KeyBackend))
	if err != nil {
		log.Printf("config: %v, falling back to %s", err, backend.GeminiFlash)
		id = backend.GeminiFlash
	}

	snap := Snapshot{
		Backend:                id,
		OutputFormat:           s.v.GetString(KeyOutputFormat),
		PrettyFormatting:       s.v.GetBool(KeyPrettyFormatting),
		OriginalFormatting:     s.v.GetBool(KeyOriginalFormatting),
		OutputLanguage:         s.v.GetString(KeyOutputLanguage),
		LatexMath:              s.v.GetBool(KeyLatexMath),
		SpellCheck:             s.v.GetBool(KeySpellCheck),
		LowConfidence:          s.v.GetBool(KeyLowConfidenceHighlighting),
		ContextualGrouping:     s.v.GetBool(KeyContextualGrouping),
		AccessibilityAltText:   s.v.GetBool(KeyAccessibilityAltText),
		SmartContext:           s.v.GetBool(KeySmartContext),
		CustomPrompt:           s.v.GetString(KeyCustomPrompt),
		CustomPromptEnabled:    s.v.GetBool(KeyCustomPromptEnabled),
		ResolutionLimitEnabled: s.v.GetBool(KeyResolutionLimitEnabled),
		MaxImageWidth:          s.v.GetInt(KeyMaxImageWidth),
		MaxImageHeight:         s.v.GetInt(KeyMaxImageHeight),
		Hotkey:                 s.v.GetString(KeyHotkey),
		EnableFileLogging:      s.v.GetBool(KeyEnableFileLogging),
		APIKey:                 s.resolveAPIKey(),

		LocalRecognitionLevel:   backend.RecognitionLevel(s.v.GetString(KeyLocalRecognitionLevel)),
		LocalLanguages:          s.v.GetStringSlice(KeyLocalLanguages),
		LocalLanguageCorrection: s.v.GetBool(KeyLocalLanguageCorrection),
		LocalCustomWords:        s.v.GetStringSlice(KeyLocalCustomWords),
	}

	if snap.PrettyFormatting && snap.OriginalFormatting {
		snap.PrettyFormatting = false
	}
	return snap
}

func (s *Store) resolveAPIKey() string {
	if key := s.v.GetString(KeyGeminiAPIKey); key != "" {
		return key
	}
	return os.Getenv(apiKeyEnvVar)
}

// PromptOptions projects the snapshot onto the prompt builder's inputs.
func (snap Snapshot) PromptOptions() prompt.Options {
	return prompt.Options{
		Format:                    snap.OutputFormat,
		PrettyFormatting:          snap.PrettyFormatting,
		OriginalFormatting:        snap.OriginalFormatting,
		OutputLanguage:            snap.OutputLanguage,
		LatexMath:                 snap.LatexMath,
		SpellCheck:                snap.SpellCheck,
		LowConfidenceHighlighting: snap.LowConfidence,
		ContextualGrouping:        snap.ContextualGrouping,
		AccessibilityAltText:      snap.AccessibilityAltText,
		SmartContext:              snap.SmartContext,
	}
}

// LocalSettings projects the snapshot onto the local backend's
// configuration surface.
func (snap Snapshot) LocalSettings() backend.LocalSettings {
	level := snap.LocalRecognitionLevel
	langs := snap.LocalLanguages
	correction := snap.LocalLanguageCorrection
	words := snap.LocalCustomWords
	return backend.LocalSettings{
		Level:              &level,
		Languages:          &langs,
		LanguageCorrection: &correction,
		CustomWords:        &words,
	}
}

// OnChange registers a callback invoked with a fresh snapshot whenever
// the config file changes on disk.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// Watch enables hot reload of the config file.
func (s *Store) Watch() {
	s.v.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("config: reloaded after %s", e.Op)
		snap := s.Snapshot()

		s.mu.RLock()
		callbacks := make([]func(Snapshot), len(s.callbacks))
		copy(callbacks, s.callbacks)
		s.mu.RUnlock()

		for _, fn := range callbacks {
			fn(snap)
		}
	})
	s.v.WatchConfig()
}
