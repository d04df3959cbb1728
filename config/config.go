package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Server struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}
type Endpoints struct {
	Calibrate string `yaml:"calibrate"`
	Analyze   string `yaml:"analyze"`
}
type Audio struct {
	SampleRate      int `yaml:"sample_rate"`
	Channels        int `yaml:"channels"`
	FramesPerBuffer int `yaml:"frames_per_buffer"`
}
type Practice struct {
	Chapter  string `yaml:"chapter"`
	Sentence string `yaml:"sentence"`
}
type Root struct {
	App struct {
		Name   string `yaml:"name"`
		LogLvl string `yaml:"log_level"`
	} `yaml:"app"`
	Server    Server    `yaml:"server"`
	Endpoints Endpoints `yaml:"endpoints"`
	Audio     Audio     `yaml:"audio"`
	Practice  Practice  `yaml:"practice"`
	Paths     struct {
		Outputs string `yaml:"outputs"`
	} `yaml:"paths"`
}

// Defaults returns the configuration used when no file sets a value.
func Defaults() *Root {
	var c Root
	c.App.Name = "prosody-coach"
	c.App.LogLvl = "info"
	c.Server = Server{URL: "http://localhost:5000", TimeoutSeconds: 60}
	c.Endpoints = Endpoints{Calibrate: "/calibrate", Analyze: "/analyze"}
	c.Audio = Audio{SampleRate: 16000, Channels: 1, FramesPerBuffer: 1024}
	c.Paths.Outputs = "outputs"
	return &c
}

// Load reads the first config file found, then overlays any key set in v
// (flags or COACH_* environment variables). A missing file is not an error.
func Load(v *viper.Viper) (*Root, error) {
	cfg := Defaults()

	var guess []string
	if v != nil && v.GetString("config") != "" {
		guess = []string{v.GetString("config")}
	} else {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		guess = []string{
			filepath.Join("config", env, "config.yaml"),
			"config.yaml",
		}
	}
	for _, p := range guess {
		f, err := os.Open(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config open %s: %w", p, err)
		}
		err = yaml.NewDecoder(f).Decode(cfg)
		f.Close()
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config decode %s: %w", p, err)
		}
		break
	}

	if v != nil {
		overlay(v, cfg)
	}
	return cfg, cfg.Validate()
}

// NewViper returns a viper instance reading COACH_SERVER_URL style
// environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("coach")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func overlay(v *viper.Viper, c *Root) {
	str := func(key string, dst *string) {
		if v.IsSet(key) && v.GetString(key) != "" {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) && v.GetInt(key) != 0 {
			*dst = v.GetInt(key)
		}
	}
	str("app.log_level", &c.App.LogLvl)
	str("server.url", &c.Server.URL)
	num("server.timeout_seconds", &c.Server.TimeoutSeconds)
	str("endpoints.calibrate", &c.Endpoints.Calibrate)
	str("endpoints.analyze", &c.Endpoints.Analyze)
	num("audio.sample_rate", &c.Audio.SampleRate)
	num("audio.channels", &c.Audio.Channels)
	num("audio.frames_per_buffer", &c.Audio.FramesPerBuffer)
	str("practice.chapter", &c.Practice.Chapter)
	str("practice.sentence", &c.Practice.Sentence)
	str("paths.outputs", &c.Paths.Outputs)
}

func (c *Root) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("config: server.url is required")
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("config: audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		return fmt.Errorf("config: audio.channels must be 1 or 2, got %d", c.Audio.Channels)
	}
	if c.Audio.FramesPerBuffer <= 0 {
		return fmt.Errorf("config: audio.frames_per_buffer must be positive, got %d", c.Audio.FramesPerBuffer)
	}
	return nil
}

// URL joins the server base with an endpoint path.
func (c *Root) URL(endpoint string) string {
	return strings.TrimRight(c.Server.URL, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Root) Timeout() time.Duration { return DurSeconds(c.Server.TimeoutSeconds) }

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }
