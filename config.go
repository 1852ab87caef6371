package realvk

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"gopkg.in/yaml.v3"
)

// Config describes everything the renderer needs before it touches the GPU.
type Config struct {
	App        AppConfig        `toml:"app" yaml:"app"`
	Window     WindowConfig     `toml:"window" yaml:"window"`
	Device     DeviceConfig     `toml:"device" yaml:"device"`
	Swapchain  SwapchainConfig  `toml:"swapchain" yaml:"swapchain"`
	Resources  ResourcesConfig  `toml:"resources" yaml:"resources"`
	Shaders    []ShaderConfig   `toml:"shaders" yaml:"shaders"`
	Pipelines  []PipelineConfig `toml:"pipelines" yaml:"pipelines"`
	ClearColor []float32        `toml:"clear_color" yaml:"clear_color"`
	Log        LogConfig        `toml:"log" yaml:"log"`
}

type AppConfig struct {
	Name          string `toml:"name" yaml:"name"`
	Version       string `toml:"version" yaml:"version"`
	EngineName    string `toml:"engine_name" yaml:"engine_name"`
	EngineVersion string `toml:"engine_version" yaml:"engine_version"`
	APIVersion    string `toml:"api_version" yaml:"api_version"`
}

type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
}

type DeviceConfig struct {
	// Strict additionally requires a discrete GPU with geometry shaders.
	Strict     bool `toml:"strict" yaml:"strict"`
	Validation bool `toml:"validation" yaml:"validation"`
}

type SwapchainConfig struct {
	FramesInFlight int  `toml:"frames_in_flight" yaml:"frames_in_flight"`
	Depth          bool `toml:"depth" yaml:"depth"`
}

type ResourcesConfig struct {
	MaxSets int `toml:"max_sets" yaml:"max_sets"`
}

// ShaderConfig names a shader resource record and its descriptor bindings.
type ShaderConfig struct {
	ID       string          `toml:"id" yaml:"id"`
	Bindings []BindingConfig `toml:"bindings" yaml:"bindings"`
}

type BindingConfig struct {
	Binding uint32 `toml:"binding" yaml:"binding"`
	Kind    string `toml:"kind" yaml:"kind"`
	Stage   string `toml:"stage" yaml:"stage"`
	Count   uint32 `toml:"count" yaml:"count"`
}

// PipelineConfig is one graphics pipeline: the shader record whose layout it
// uses, the vertex layout it consumes and its programmable stages.
type PipelineConfig struct {
	ID           string        `toml:"id" yaml:"id"`
	Shader       string        `toml:"shader" yaml:"shader"`
	VertexLayout string        `toml:"vertex_layout" yaml:"vertex_layout"`
	Stages       []StageConfig `toml:"stages" yaml:"stages"`
}

type StageConfig struct {
	Stage      string `toml:"stage" yaml:"stage"`
	Path       string `toml:"path" yaml:"path"`
	EntryPoint string `toml:"entry_point" yaml:"entry_point"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:          "realvk",
			Version:       "1.0.0",
			EngineName:    "realvk",
			EngineVersion: "1.0.0",
			APIVersion:    "1.0.0",
		},
		Window: WindowConfig{
			Title:  "realvk",
			Width:  800,
			Height: 600,
		},
		Swapchain: SwapchainConfig{
			FramesInFlight: 2,
			Depth:          true,
		},
		Resources: ResourcesConfig{
			MaxSets: 10,
		},
		Shaders: []ShaderConfig{{
			ID: "basic",
			Bindings: []BindingConfig{
				{Binding: 0, Kind: "uniform_buffer", Stage: "vertex", Count: 1},
			},
		}},
		Pipelines: []PipelineConfig{{
			ID:           "triangle",
			Shader:       "basic",
			VertexLayout: "color",
			Stages: []StageConfig{
				{Stage: "vertex", Path: "shaders/triangle.vert.spv", EntryPoint: "main"},
				{Stage: "fragment", Path: "shaders/triangle.frag.spv", EntryPoint: "main"},
			},
		}},
		ClearColor: []float32{1, 0, 0, 1},
		Log:        LogConfig{Level: "info"},
	}
}

// LoadConfig reads a TOML or YAML file, chosen by extension, over the
// defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	defaults := DefaultConfig()
	cfg := DefaultConfig()
	// List sections in the file replace the defaults instead of extending
	// them.
	cfg.Shaders, cfg.Pipelines, cfg.ClearColor = nil, nil, nil
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, errors.Errorf("config %s: unsupported extension", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if cfg.Shaders == nil && cfg.Pipelines == nil {
		cfg.Shaders, cfg.Pipelines = defaults.Shaders, defaults.Pipelines
	}
	if cfg.ClearColor == nil {
		cfg.ClearColor = defaults.ClearColor
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Swapchain.FramesInFlight < 1 {
		return errors.Errorf("swapchain.frames_in_flight must be >= 1, got %d", c.Swapchain.FramesInFlight)
	}
	if c.Resources.MaxSets < 1 {
		return errors.Errorf("resources.max_sets must be >= 1, got %d", c.Resources.MaxSets)
	}
	if c.Window.Width < 1 || c.Window.Height < 1 {
		return errors.Errorf("window size %dx%d is invalid", c.Window.Width, c.Window.Height)
	}
	if len(c.ClearColor) != 4 {
		return errors.Errorf("clear_color needs 4 components, got %d", len(c.ClearColor))
	}
	for _, v := range []string{c.App.Version, c.App.EngineVersion, c.App.APIVersion} {
		if _, err := ParseVersion(v); err != nil {
			return err
		}
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	shaders := make(map[string]struct{}, len(c.Shaders))
	for _, s := range c.Shaders {
		if s.ID == "" {
			return errors.New("shader without id")
		}
		for _, b := range s.Bindings {
			parsed, err := b.Parse()
			if err != nil {
				return errors.Wrapf(err, "shader %q", s.ID)
			}
			// The shared descriptor pool only holds uniform buffers.
			if parsed.Type != vk.DescriptorTypeUniformBuffer {
				return errors.Errorf("shader %q binding %d: kind %q is not supported by the descriptor pool", s.ID, b.Binding, b.Kind)
			}
		}
		shaders[s.ID] = struct{}{}
	}
	for _, p := range c.Pipelines {
		if p.ID == "" {
			return errors.New("pipeline without id")
		}
		if _, ok := shaders[p.Shader]; !ok {
			return errors.Wrapf(ErrUnknownShader, "pipeline %q references %q", p.ID, p.Shader)
		}
		if _, err := VertexLayoutByName(p.VertexLayout); err != nil {
			return errors.Wrapf(err, "pipeline %q", p.ID)
		}
		if len(p.Stages) == 0 {
			return errors.Errorf("pipeline %q has no stages", p.ID)
		}
		for _, st := range p.Stages {
			if _, err := ParseShaderStage(st.Stage); err != nil {
				return errors.Wrapf(err, "pipeline %q", p.ID)
			}
			if st.Path == "" || st.EntryPoint == "" {
				return errors.Errorf("pipeline %q: %s stage needs a path and an entry point", p.ID, st.Stage)
			}
		}
	}
	return nil
}

// LogLevel parses log.level; empty means info.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return level, errors.Wrap(err, "log.level")
	}
	return level, nil
}

// Shader returns the shader config with the given id.
func (c *Config) Shader(id string) (ShaderConfig, bool) {
	for _, s := range c.Shaders {
		if s.ID == id {
			return s, true
		}
	}
	return ShaderConfig{}, false
}

// ParseVersion turns "major.minor.patch" into a packed Vulkan version.
func ParseVersion(s string) (uint32, error) {
	var major, minor, patch int
	if _, err := fmt.Sscanf(s, "%d.%d.%d", &major, &minor, &patch); err != nil {
		return 0, errors.Errorf("version %q is not major.minor.patch", s)
	}
	if major < 0 || minor < 0 || patch < 0 {
		return 0, errors.Errorf("version %q has a negative component", s)
	}
	return uint32(vk.MakeVersion(major, minor, patch)), nil
}

// Parse converts the textual binding into a descriptor binding.
func (b BindingConfig) Parse() (Binding, error) {
	var kind vk.DescriptorType
	switch strings.ToLower(b.Kind) {
	case "uniform_buffer":
		kind = vk.DescriptorTypeUniformBuffer
	case "combined_image_sampler":
		kind = vk.DescriptorTypeCombinedImageSampler
	case "storage_buffer":
		kind = vk.DescriptorTypeStorageBuffer
	default:
		return Binding{}, errors.Errorf("binding %d: unknown kind %q", b.Binding, b.Kind)
	}
	stage, err := ParseShaderStage(b.Stage)
	if err != nil {
		return Binding{}, errors.Wrapf(err, "binding %d", b.Binding)
	}
	count := b.Count
	if count == 0 {
		count = 1
	}
	return Binding{
		Binding: b.Binding,
		Type:    kind,
		Count:   count,
		Stages:  vk.ShaderStageFlags(stage),
	}, nil
}

// ParseShaderStage maps a stage name onto its Vulkan stage bit.
func ParseShaderStage(name string) (vk.ShaderStageFlagBits, error) {
	switch strings.ToLower(name) {
	case "vertex":
		return vk.ShaderStageVertexBit, nil
	case "fragment":
		return vk.ShaderStageFragmentBit, nil
	case "geometry":
		return vk.ShaderStageGeometryBit, nil
	case "tessellation_control":
		return vk.ShaderStageTessellationControlBit, nil
	case "tessellation_evaluation":
		return vk.ShaderStageTessellationEvaluationBit, nil
	}
	return 0, errors.Errorf("unknown shader stage %q", name)
}
