package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// PlayerConfig drives pacing, reveal and theming of the playback loop.
	PlayerConfig struct {
		Debug          bool          `yaml:"debug"`
		DefaultDelay   time.Duration `yaml:"default_delay" validate:"gte=0"`
		ReadingChunk   int           `yaml:"reading_chunk" validate:"min=1"`
		ReadingTime    time.Duration `yaml:"reading_time" validate:"gte=0"`
		ImageTime      time.Duration `yaml:"image_time" validate:"gte=0"`
		ChoiceSettle   time.Duration `yaml:"choice_settle" validate:"gte=0"`
		FadeOut        time.Duration `yaml:"fade_out" validate:"gte=0"`
		ScrollFrame    time.Duration `yaml:"scroll_frame" validate:"gt=0"`
		TextAnimate    []string      `yaml:"text_animate" validate:"dive,required"`
		AdditionThemes []string      `yaml:"addition_themes" validate:"dive,required"`
		PreferDark     bool          `yaml:"prefer_dark"`
		BylinePrefix   string        `yaml:"byline_prefix"`
		TagOnly        string        `yaml:"tag_only" validate:"required"`
	}

	// PageConfig describes simulated layout of the story page.
	PageConfig struct {
		ViewportHeight int `yaml:"viewport_height" validate:"min=100"`
		ContentWidth   int `yaml:"content_width" validate:"min=100"`
		LineHeight     int `yaml:"line_height" validate:"min=1"`
		CharsPerLine   int `yaml:"chars_per_line" validate:"min=10"`
		ParagraphGap   int `yaml:"paragraph_gap" validate:"gte=0"`
		HeaderHeight   int `yaml:"header_height" validate:"gte=0"`
		ImageHeight    int `yaml:"image_height" validate:"min=1"`
	}

	StorageConfig struct {
		Path string `yaml:"path" validate:"omitempty,filepath"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Player    PlayerConfig   `yaml:"player"`
		Page      PageConfig     `yaml:"page"`
		Storage   StorageConfig  `yaml:"storage"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
