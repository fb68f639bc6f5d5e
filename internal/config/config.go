package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/pbaille/ulasan/internal/balancer"
	"github.com/pbaille/ulasan/internal/collector"
	"github.com/pbaille/ulasan/internal/playstore"
	"github.com/pbaille/ulasan/internal/predictor"
)

// DefaultFile is read when no --config is given and it exists
const DefaultFile = "ulasan.yaml"

// EnvPrefix prefixes every environment override
const EnvPrefix = "ULASAN_"

type Config struct {
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Collector struct {
		AppID                  string        `yaml:"app_id"`
		Lang                   string        `yaml:"lang"`
		Country                string        `yaml:"country"`
		Sort                   string        `yaml:"sort"`
		PageSize               int           `yaml:"page_size"`
		Target                 int           `yaml:"target"`
		PageDelay              time.Duration `yaml:"page_delay"`
		RetryDelay             time.Duration `yaml:"retry_delay"`
		EarlyStopRatio         float64       `yaml:"early_stop_ratio"`
		MaxConsecutiveFailures int           `yaml:"max_consecutive_failures"`
	} `yaml:"collector"`

	Dataset struct {
		Prefix string `yaml:"prefix"`
		XLSX   bool   `yaml:"xlsx"`
	} `yaml:"dataset"`

	Balancer struct {
		MinRows  int   `yaml:"min_rows"` // balance only datasets at least this large
		PerClass int   `yaml:"per_class"`
		Seed     int64 `yaml:"seed"`
	} `yaml:"balancer"`

	Predictor struct {
		ModelDir       string        `yaml:"model_dir"`
		ModelName      string        `yaml:"model_name"`
		Device         string        `yaml:"device"`
		AcceleratedURL string        `yaml:"accelerated_url"`
		CPUURL         string        `yaml:"cpu_url"`
		MaxLength      int           `yaml:"max_length"`
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"predictor"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// Default returns the built-in settings
func Default() *Config {
	var cfg Config
	cfg.Log.Level = "info"

	co := collector.DefaultOptions()
	cfg.Collector.AppID = co.AppID
	cfg.Collector.Lang = co.Lang
	cfg.Collector.Country = co.Country
	cfg.Collector.Sort = co.Sort.String()
	cfg.Collector.PageSize = co.PageSize
	cfg.Collector.Target = co.Target
	cfg.Collector.PageDelay = co.PageDelay
	cfg.Collector.RetryDelay = co.RetryDelay
	cfg.Collector.EarlyStopRatio = co.EarlyStopRatio
	cfg.Collector.MaxConsecutiveFailures = co.MaxConsecutiveFailures

	cfg.Dataset.Prefix = "gojek_reviews"

	cfg.Balancer.MinRows = 10000
	cfg.Balancer.PerClass = 3500
	cfg.Balancer.Seed = balancer.DefaultSeed

	pc := predictor.DefaultConfig()
	cfg.Predictor.ModelDir = pc.ModelDir
	cfg.Predictor.ModelName = pc.ModelName
	cfg.Predictor.Device = string(pc.Device)
	cfg.Predictor.AcceleratedURL = pc.AcceleratedURL
	cfg.Predictor.CPUURL = pc.CPUURL
	cfg.Predictor.MaxLength = pc.MaxLength
	cfg.Predictor.Timeout = pc.Timeout

	cfg.Server.Addr = ":8080"
	return &cfg
}

// BindFlags registers the command line overrides. Flags write straight into
// cfg, so bind them on a Config obtained from Default.
func (cfg *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level (trace,debug,info,warn,error)")
}

// BindCollectorFlags registers the collect command flags
func (cfg *Config) BindCollectorFlags(fs *pflag.FlagSet) {
	c := &cfg.Collector
	fs.StringVar(&c.AppID, "app", c.AppID, "Play Store package name")
	fs.StringVar(&c.Lang, "lang", c.Lang, "review language")
	fs.StringVar(&c.Country, "country", c.Country, "store country")
	fs.StringVar(&c.Sort, "sort", c.Sort, "review order (newest, most_relevant, rating)")
	fs.IntVar(&c.Target, "target", c.Target, "number of reviews to collect")
	fs.IntVar(&c.PageSize, "page-size", c.PageSize, "reviews per request")
	fs.DurationVar(&c.PageDelay, "page-delay", c.PageDelay, "pause between pages")
	fs.DurationVar(&c.RetryDelay, "retry-delay", c.RetryDelay, "pause after a failed page")
	fs.IntVar(&c.MaxConsecutiveFailures, "max-failures", c.MaxConsecutiveFailures, "give up after this many failures in a row (0 retries forever)")
	fs.StringVar(&cfg.Dataset.Prefix, "prefix", cfg.Dataset.Prefix, "output file name prefix")
	fs.BoolVar(&cfg.Dataset.XLSX, "xlsx", cfg.Dataset.XLSX, "also write an XLSX workbook")
}

// BindBalancerFlags registers the balancing flags
func (cfg *Config) BindBalancerFlags(fs *pflag.FlagSet) {
	fs.IntVar(&cfg.Balancer.PerClass, "per-class", cfg.Balancer.PerClass, "rows per sentiment after balancing")
	fs.Int64Var(&cfg.Balancer.Seed, "seed", cfg.Balancer.Seed, "sampling seed")
}

// BindPredictorFlags registers the model and inference endpoint flags
func (cfg *Config) BindPredictorFlags(fs *pflag.FlagSet) {
	p := &cfg.Predictor
	fs.StringVar(&p.ModelDir, "model-dir", p.ModelDir, "directory holding tokenizer.json and config.json")
	fs.StringVar(&p.ModelName, "model-name", p.ModelName, "name the model is served under")
	fs.StringVar(&p.Device, "device", p.Device, "inference device (auto, gpu, cpu)")
	fs.StringVar(&p.AcceleratedURL, "gpu-url", p.AcceleratedURL, "accelerated inference server")
	fs.StringVar(&p.CPUURL, "cpu-url", p.CPUURL, "CPU inference server")
}

// Load layers the config file, .env and ULASAN_* variables over cfg. Flags
// the user set explicitly on flags keep their values. An empty path reads
// DefaultFile when present.
func Load(cfg *Config, path string, flags *pflag.FlagSet) error {
	explicit := map[string]string{}
	if flags != nil {
		flags.Visit(func(f *pflag.Flag) {
			explicit[f.Name] = f.Value.String()
		})
	}

	if err := loadFile(cfg, path); err != nil {
		return err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return err
	}

	for name, value := range explicit {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("restore flag %s: %w", name, err)
		}
	}
	return nil
}

func loadFile(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	log.WithField("file", path).Debug("loaded config file")
	return nil
}

// applyEnv overrides cfg from ULASAN_* variables
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	str("APP_ID", &cfg.Collector.AppID)
	str("LANG", &cfg.Collector.Lang)
	str("COUNTRY", &cfg.Collector.Country)
	str("SORT", &cfg.Collector.Sort)
	str("OUTPUT_PREFIX", &cfg.Dataset.Prefix)
	str("MODEL_DIR", &cfg.Predictor.ModelDir)
	str("MODEL_NAME", &cfg.Predictor.ModelName)
	str("DEVICE", &cfg.Predictor.Device)
	str("GPU_URL", &cfg.Predictor.AcceleratedURL)
	str("CPU_URL", &cfg.Predictor.CPUURL)
	str("ADDR", &cfg.Server.Addr)

	for key, dst := range map[string]*int{
		"TARGET":       &cfg.Collector.Target,
		"PAGE_SIZE":    &cfg.Collector.PageSize,
		"MAX_FAILURES": &cfg.Collector.MaxConsecutiveFailures,
		"MIN_ROWS":     &cfg.Balancer.MinRows,
		"PER_CLASS":    &cfg.Balancer.PerClass,
		"MAX_LENGTH":   &cfg.Predictor.MaxLength,
	} {
		if err := override(lookup, key, dst, strconv.Atoi); err != nil {
			return err
		}
	}

	for key, dst := range map[string]*time.Duration{
		"PAGE_DELAY":        &cfg.Collector.PageDelay,
		"RETRY_DELAY":       &cfg.Collector.RetryDelay,
		"INFERENCE_TIMEOUT": &cfg.Predictor.Timeout,
	} {
		if err := override(lookup, key, dst, time.ParseDuration); err != nil {
			return err
		}
	}

	parseFloat := func(v string) (float64, error) { return strconv.ParseFloat(v, 64) }
	if err := override(lookup, "EARLY_STOP_RATIO", &cfg.Collector.EarlyStopRatio, parseFloat); err != nil {
		return err
	}
	parseSeed := func(v string) (int64, error) { return strconv.ParseInt(v, 10, 64) }
	if err := override(lookup, "SEED", &cfg.Balancer.Seed, parseSeed); err != nil {
		return err
	}
	return override(lookup, "XLSX", &cfg.Dataset.XLSX, strconv.ParseBool)
}

// override parses ULASAN_<key> into dst when it is set and non-empty
func override[T any](lookup func(string) (string, bool), key string, dst *T, parse func(string) (T, error)) error {
	v, ok := lookup(EnvPrefix + key)
	if !ok || v == "" {
		return nil
	}
	parsed, err := parse(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = parsed
	return nil
}

// CollectorOptions converts the collector section
func (cfg *Config) CollectorOptions() (collector.Options, error) {
	c := cfg.Collector
	sort, err := playstore.ParseSort(c.Sort)
	if err != nil {
		return collector.Options{}, err
	}
	if c.PageSize <= 0 || c.PageSize > playstore.MaxPageSize {
		return collector.Options{}, fmt.Errorf("page size must be between 1 and %d", playstore.MaxPageSize)
	}
	if c.Target <= 0 {
		return collector.Options{}, fmt.Errorf("target must be positive")
	}
	if c.EarlyStopRatio <= 0 || c.EarlyStopRatio > 1 {
		return collector.Options{}, fmt.Errorf("early stop ratio must be in (0, 1], got %g", c.EarlyStopRatio)
	}

	return collector.Options{
		AppID:                  c.AppID,
		Lang:                   c.Lang,
		Country:                c.Country,
		Sort:                   sort,
		PageSize:               c.PageSize,
		Target:                 c.Target,
		PageDelay:              c.PageDelay,
		RetryDelay:             c.RetryDelay,
		EarlyStopRatio:         c.EarlyStopRatio,
		MaxConsecutiveFailures: c.MaxConsecutiveFailures,
	}, nil
}

// PredictorConfig converts the predictor section
func (cfg *Config) PredictorConfig() (predictor.Config, error) {
	p := cfg.Predictor
	device := predictor.Device(p.Device)
	switch device {
	case predictor.DeviceAuto, predictor.DeviceGPU, predictor.DeviceCPU:
	default:
		return predictor.Config{}, fmt.Errorf("unknown device %q", p.Device)
	}

	return predictor.Config{
		ModelDir:       p.ModelDir,
		ModelName:      p.ModelName,
		Device:         device,
		AcceleratedURL: p.AcceleratedURL,
		CPUURL:         p.CPUURL,
		MaxLength:      p.MaxLength,
		Timeout:        p.Timeout,
	}, nil
}
