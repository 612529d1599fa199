package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/TIANLI0/FloorKit/floor"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Model    ModelConfig    `mapstructure:"model"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Floor    FloorConfig    `mapstructure:"floor"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	LogLevel     string        `mapstructure:"log_level"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// ModelConfig ONNX 分割模型
type ModelConfig struct {
	LibraryPath string `mapstructure:"library_path"`
	Path        string `mapstructure:"path"`
	NumThreads  int    `mapstructure:"num_threads"`
}

// PipelineConfig 并发控制和输入尺寸上限
type PipelineConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
	QueueTimeout  int `mapstructure:"queue_timeout"`
	// MaxPixels 解码前按文件头限制像素数，0 表示不限制
	MaxPixels int `mapstructure:"max_pixels"`
}

// FloorConfig 地板掩码参数，字段与 floor.Options 一一对应
type FloorConfig struct {
	InputSize                int       `mapstructure:"input_size"`
	ChannelOrder             string    `mapstructure:"channel_order"`
	NormMean                 []float64 `mapstructure:"norm_mean"`
	NormStd                  []float64 `mapstructure:"norm_std"`
	FloorClassIndex          int       `mapstructure:"floor_class_index"`
	FurnitureClassIndices    []int     `mapstructure:"furniture_class_indices"`
	BinaryThreshold          float64   `mapstructure:"binary_threshold"`
	FloorProbThreshold       float64   `mapstructure:"floor_prob_threshold"`
	FusionMode               string    `mapstructure:"fusion_mode"`
	SubtractFurniture        bool      `mapstructure:"subtract_furniture"`
	CloseRadius              int       `mapstructure:"close_radius"`
	ErodeIterations          int       `mapstructure:"erode_iterations"`
	DilateIterations         int       `mapstructure:"dilate_iterations"`
	VerticalDilateIterations int       `mapstructure:"vertical_dilate_iterations"`
	MinComponentAreaRatio    float64   `mapstructure:"min_component_area_ratio"`
	MaxHoleAreaRatio         float64   `mapstructure:"max_hole_area_ratio"`
	UseTTA                   bool      `mapstructure:"use_tta"`
	ContrastStretch          bool      `mapstructure:"contrast_stretch"`
	ResampleFilter           string    `mapstructure:"resample_filter"`
	DebugOverlay             bool      `mapstructure:"debug_overlay"`
	// Preset 非空时在上述参数之上套用 strict / lenient 预设
	Preset string `mapstructure:"preset"`
}

// Load 从 YAML 文件加载配置，环境变量 FLOORKIT_* 可覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FLOORKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := cfg.Floor.Options(); err != nil {
		return nil, fmt.Errorf("invalid floor config: %w", err)
	}

	return &cfg, nil
}

// New 使用默认配置路径加载配置。
// 配置文件不存在时返回默认配置，其他错误（解析失败、参数非法）原样返回。
func New() (*Config, error) {
	return loadOrDefault("config.yaml")
}

func loadOrDefault(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return getDefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Options 转换为管线参数并校验
func (fc FloorConfig) Options() (floor.Options, error) {
	opts := floor.Options{
		InputSize:                fc.InputSize,
		ChannelOrder:             floor.ChannelOrder(strings.ToLower(fc.ChannelOrder)),
		FloorClassIndex:          fc.FloorClassIndex,
		FurnitureClassIndices:    append([]int(nil), fc.FurnitureClassIndices...),
		BinaryThreshold:          float32(fc.BinaryThreshold),
		FloorProbThreshold:       float32(fc.FloorProbThreshold),
		FusionMode:               floor.FusionMode(strings.ToLower(fc.FusionMode)),
		SubtractFurniture:        fc.SubtractFurniture,
		CloseRadius:              fc.CloseRadius,
		ErodeIterations:          fc.ErodeIterations,
		DilateIterations:         fc.DilateIterations,
		VerticalDilateIterations: fc.VerticalDilateIterations,
		MinComponentAreaRatio:    fc.MinComponentAreaRatio,
		MaxHoleAreaRatio:         fc.MaxHoleAreaRatio,
		UseTTA:                   fc.UseTTA,
		ContrastStretch:          fc.ContrastStretch,
		ResampleFilter:           fc.ResampleFilter,
		DebugOverlay:             fc.DebugOverlay,
	}
	if len(fc.NormMean) != 3 || len(fc.NormStd) != 3 {
		return floor.Options{}, fmt.Errorf("%w: norm_mean and norm_std need 3 values", floor.ErrConfiguration)
	}
	for c := range 3 {
		opts.NormMean[c] = float32(fc.NormMean[c])
		opts.NormStd[c] = float32(fc.NormStd[c])
	}
	opts, err := opts.WithPreset(fc.Preset)
	if err != nil {
		return floor.Options{}, err
	}
	if err := opts.Validate(); err != nil {
		return floor.Options{}, err
	}
	return opts, nil
}

func setDefaults(v *viper.Viper) {
	d := getDefaultConfig()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.log_level", d.Server.LogLevel)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("upload.max_size", d.Upload.MaxSize)
	v.SetDefault("upload.allowed_types", d.Upload.AllowedTypes)

	v.SetDefault("model.library_path", d.Model.LibraryPath)
	v.SetDefault("model.path", d.Model.Path)
	v.SetDefault("model.num_threads", d.Model.NumThreads)

	v.SetDefault("pipeline.max_concurrent", d.Pipeline.MaxConcurrent)
	v.SetDefault("pipeline.queue_timeout", d.Pipeline.QueueTimeout)
	v.SetDefault("pipeline.max_pixels", d.Pipeline.MaxPixels)

	f := d.Floor
	v.SetDefault("floor.input_size", f.InputSize)
	v.SetDefault("floor.channel_order", f.ChannelOrder)
	v.SetDefault("floor.norm_mean", f.NormMean)
	v.SetDefault("floor.norm_std", f.NormStd)
	v.SetDefault("floor.floor_class_index", f.FloorClassIndex)
	v.SetDefault("floor.furniture_class_indices", f.FurnitureClassIndices)
	v.SetDefault("floor.binary_threshold", f.BinaryThreshold)
	v.SetDefault("floor.floor_prob_threshold", f.FloorProbThreshold)
	v.SetDefault("floor.fusion_mode", f.FusionMode)
	v.SetDefault("floor.subtract_furniture", f.SubtractFurniture)
	v.SetDefault("floor.close_radius", f.CloseRadius)
	v.SetDefault("floor.erode_iterations", f.ErodeIterations)
	v.SetDefault("floor.dilate_iterations", f.DilateIterations)
	v.SetDefault("floor.vertical_dilate_iterations", f.VerticalDilateIterations)
	v.SetDefault("floor.min_component_area_ratio", f.MinComponentAreaRatio)
	v.SetDefault("floor.max_hole_area_ratio", f.MaxHoleAreaRatio)
	v.SetDefault("floor.use_tta", f.UseTTA)
	v.SetDefault("floor.contrast_stretch", f.ContrastStretch)
	v.SetDefault("floor.resample_filter", f.ResampleFilter)
	v.SetDefault("floor.debug_overlay", f.DebugOverlay)
	v.SetDefault("floor.preset", f.Preset)
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			Mode:         "debug",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxSize:      10 * 1024 * 1024,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/jpg", "image/webp"},
		},
		Model: ModelConfig{
			LibraryPath: "",
			Path:        "./models/model.onnx",
			NumThreads:  0,
		},
		Pipeline: PipelineConfig{
			MaxConcurrent: 2,
			QueueTimeout:  30,
			MaxPixels:     25_000_000,
		},
		Floor: defaultFloorConfig(),
	}
}

func defaultFloorConfig() FloorConfig {
	o := floor.DefaultOptions()
	fc := FloorConfig{
		InputSize:                o.InputSize,
		ChannelOrder:             string(o.ChannelOrder),
		FloorClassIndex:          o.FloorClassIndex,
		FurnitureClassIndices:    o.FurnitureClassIndices,
		BinaryThreshold:          float64(o.BinaryThreshold),
		FloorProbThreshold:       float64(o.FloorProbThreshold),
		FusionMode:               string(o.FusionMode),
		SubtractFurniture:        o.SubtractFurniture,
		CloseRadius:              o.CloseRadius,
		ErodeIterations:          o.ErodeIterations,
		DilateIterations:         o.DilateIterations,
		VerticalDilateIterations: o.VerticalDilateIterations,
		MinComponentAreaRatio:    o.MinComponentAreaRatio,
		MaxHoleAreaRatio:         o.MaxHoleAreaRatio,
		UseTTA:                   o.UseTTA,
		ContrastStretch:          o.ContrastStretch,
		ResampleFilter:           o.ResampleFilter,
		DebugOverlay:             o.DebugOverlay,
	}
	for c := range 3 {
		fc.NormMean = append(fc.NormMean, float64(o.NormMean[c]))
		fc.NormStd = append(fc.NormStd, float64(o.NormStd[c]))
	}
	return fc
}
