package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config описывает один запуск: входы, геометрию кадра и настройки
// планировщика/кодера. Поля с yaml-тегами могут приходить из файла
// пресета (-config).
type Config struct {
	AudioPath   string `yaml:"audio"`
	ImagesPath  string `yaml:"images"`
	OutputVideo string `yaml:"output"`

	TotalDuration float64 `yaml:"duration"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	FPS           int     `yaml:"fps"`
	Workers       int     `yaml:"workers"`

	MinSegment   float64 `yaml:"min_segment"`
	MaxSegment   float64 `yaml:"max_segment"`
	FadeDuration float64 `yaml:"fade"`

	DPI    int    `yaml:"dpi"`
	QRLink string `yaml:"qr_link"`

	StoryboardInput    string `yaml:"storyboard"`
	StoryboardOutput   string `yaml:"storyboard_output"`
	GenerateStoryboard bool   `yaml:"-"`

	VideoEncoder string `yaml:"encoder"`
	Quality      int    `yaml:"quality"`

	ShowStats    bool   `yaml:"stats"`
	BuildVersion string `yaml:"-"`
}

// Load читает пресет конфигурации из YAML-файла
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("пресет %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyPreset выставляет геометрию кадра по имени формата
func (c *Config) ApplyPreset(name string) {
	switch name {
	case "9:16":
		c.Width, c.Height = 1080, 1920
	case "16:9":
		c.Width, c.Height = 1920, 1080
	case "4:5":
		c.Width, c.Height = 1080, 1350
	}
}
