// Package config loads the scanner configuration: a JSON file read through
// viper, SCANDOC_* environment overrides and secrets from the environment.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultModelPath is the zero-shot model used when none is configured.
const DefaultModelPath = "MoritzLaurer/mDeBERTa-v3-base-mnli-xnli"

// Scorer backends.
const (
	BackendHuggingFace = "huggingface"
	BackendGemini      = "gemini"
	BackendGeminiEmbed = "gemini-embed"
)

type Config struct {
	// ModelPath identifies the zero-shot model for the huggingface backend.
	ModelPath string `mapstructure:"model_path"`
	// Categories is the candidate label set, in config file order.
	Categories []string `mapstructure:"-"`

	Backend     string `mapstructure:"backend"`
	HFEndpoint  string `mapstructure:"hf_endpoint"`
	GeminiModel string `mapstructure:"gemini_model"`
	EmbedModel  string `mapstructure:"embed_model"`

	OCR        OCRConfig        `mapstructure:"ocr"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Scan       ScanConfig       `mapstructure:"scan"`
	Server     ServerConfig     `mapstructure:"server"`

	HFToken      string `mapstructure:"-"`
	GeminiAPIKey string `mapstructure:"-"`
	JWTSecret    string `mapstructure:"-"`
	AwsAccessKey string `mapstructure:"-"`
	AwsSecretKey string `mapstructure:"-"`
	AwsRegion    string `mapstructure:"-"`
}

type OCRConfig struct {
	Languages    []string `mapstructure:"languages"`
	DPI          int      `mapstructure:"dpi"`
	PdftoppmPath string   `mapstructure:"pdftoppm_path"`
}

type ClassifierConfig struct {
	// MaxTokens bounds the text sent to the scorer (approx. 4 chars per token).
	MaxTokens int `mapstructure:"max_tokens"`
}

type ScanConfig struct {
	// FileTimeout caps extraction plus classification of one file. Zero disables it.
	FileTimeout   time.Duration `mapstructure:"file_timeout"`
	KeepExtracted bool          `mapstructure:"keep_extracted"`
	TempDir       string        `mapstructure:"temp_dir"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadMB    int64    `mapstructure:"max_upload_mb"`
}

// Default returns the configuration used when no file can be read.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_path", DefaultModelPath)
	v.SetDefault("backend", BackendHuggingFace)
	v.SetDefault("hf_endpoint", "https://api-inference.huggingface.co")
	v.SetDefault("gemini_model", "gemini-1.5-flash")
	v.SetDefault("embed_model", "text-embedding-004")

	v.SetDefault("ocr.languages", []string{"eng", "rus", "vie"})
	v.SetDefault("ocr.dpi", 200)
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")

	v.SetDefault("classifier.max_tokens", 512)

	v.SetDefault("scan.file_timeout", "0s")
	v.SetDefault("scan.keep_extracted", false)
	v.SetDefault("scan.temp_dir", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.max_upload_mb", 64)
}

// Load reads the configuration file at path.
//
// Load always returns a usable *Config. When the file cannot be read or parsed
// the returned error describes why, and the config holds the defaults (so the
// default model and an empty label set); callers should warn and carry on.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SCANDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var readErr error
	var raw []byte
	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("json")
		}
		if readErr = v.ReadInConfig(); readErr != nil {
			readErr = fmt.Errorf("read config %s: %w", path, readErr)
		} else {
			raw, _ = os.ReadFile(path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		cfg = Default()
		if readErr == nil {
			readErr = fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if readErr == nil {
		cats, err := orderedCategories(raw)
		if err != nil {
			cats = sortedCategories(v.GetStringMapString("categories"))
		}
		cfg.Categories = cats
	}

	if strings.TrimSpace(cfg.ModelPath) == "" {
		cfg.ModelPath = DefaultModelPath
	}
	loadSecrets(cfg)
	return cfg, readErr
}

// orderedCategories returns the values of the "categories" object in document
// order; viper's maps lose it. A JSON array is accepted as well.
func orderedCategories(raw []byte) ([]string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	field, ok := doc["categories"]
	if !ok || bytes.Equal(bytes.TrimSpace(field), []byte("null")) {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(field, &list); err == nil {
		return list, nil
	}

	dec := json.NewDecoder(bytes.NewReader(field))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("categories: expected object")
	}
	var labels []string
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("categories key: %w", err)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("categories value: %w", err)
		}
		if s, ok := val.(string); ok {
			labels = append(labels, s)
		} else {
			labels = append(labels, fmt.Sprint(val))
		}
	}
	return labels, nil
}

func sortedCategories(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	labels := make([]string, 0, len(keys))
	for _, k := range keys {
		labels = append(labels, m[k])
	}
	return labels
}
