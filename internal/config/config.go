package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Output formats accepted in OUTPUT_FORMATS.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
	FormatXLSX    = "xlsx"
	FormatPDF     = "pdf"
)

var knownFormats = []string{FormatCSV, FormatParquet, FormatXLSX, FormatPDF}

// Config holds all run settings, populated from a .env file, an optional YAML
// file and environment variables, in increasing order of precedence.
type Config struct {
	IgraPath   string
	MetPath    string
	CmonocPath string

	OutputDir     string
	OutputFormats []string
	RegistryTable string
	NetworkTable  string
	ThreeWayTable string

	MinEndYear        int
	Precision         int
	DistanceMetric    string
	StrictKeys        bool
	Workers           int
	NearestCacheSize  int
	PersistNormalized bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// fileConfig is the YAML overlay named by CONFIG_FILE. Values are strings so
// they go through the same parsing and validation as environment variables.
type fileConfig struct {
	IgraPath          string `yaml:"igra_path"`
	MetPath           string `yaml:"met_path"`
	CmonocPath        string `yaml:"cmonoc_path"`
	OutputDir         string `yaml:"output_dir"`
	OutputFormats     string `yaml:"output_formats"`
	RegistryTable     string `yaml:"registry_table"`
	NetworkTable      string `yaml:"network_table"`
	ThreeWayTable     string `yaml:"three_way_table"`
	MinEndYear        string `yaml:"min_end_year"`
	Precision         string `yaml:"precision"`
	DistanceMetric    string `yaml:"distance_metric"`
	StrictKeys        string `yaml:"strict_keys"`
	Workers           string `yaml:"workers"`
	NearestCacheSize  string `yaml:"nearest_cache_size"`
	PersistNormalized string `yaml:"persist_normalized"`
	HTTPAddr          string `yaml:"http_addr"`
	LogLevel          string `yaml:"log_level"`
	LogFormat         string `yaml:"log_format"`
	KafkaEnabled      string `yaml:"kafka_enabled"`
	KafkaBrokers      string `yaml:"kafka_brokers"`
	KafkaTopic        string `yaml:"kafka_topic"`
}

// Load reads configuration, applying defaults where unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	file, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	minEndYear, err := parseInt("MIN_END_YEAR", setting("MIN_END_YEAR", file.MinEndYear, "2010"))
	if err != nil {
		return nil, err
	}
	precision, err := parseInt("PRECISION", setting("PRECISION", file.Precision, "4"))
	if err != nil {
		return nil, err
	}
	workers, err := parseInt("WORKERS", setting("WORKERS", file.Workers, strconv.Itoa(runtime.NumCPU())))
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("NEAREST_CACHE_SIZE", setting("NEAREST_CACHE_SIZE", file.NearestCacheSize, "4096"))
	if err != nil {
		return nil, err
	}
	strictKeys, err := parseBool("STRICT_KEYS", setting("STRICT_KEYS", file.StrictKeys, "false"))
	if err != nil {
		return nil, err
	}
	persist, err := parseBool("PERSIST_NORMALIZED", setting("PERSIST_NORMALIZED", file.PersistNormalized, "false"))
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", setting("KAFKA_ENABLED", file.KafkaEnabled, "false"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		IgraPath:          setting("IGRA_PATH", file.IgraPath, "igra2-station-list.txt"),
		MetPath:           setting("MET_PATH", file.MetPath, "ChinaMetSites.csv"),
		CmonocPath:        setting("CMONOC_PATH", file.CmonocPath, "CmonocSites.txt"),
		OutputDir:         setting("OUTPUT_DIR", file.OutputDir, "output"),
		OutputFormats:     parseList(setting("OUTPUT_FORMATS", file.OutputFormats, FormatCSV)),
		RegistryTable:     setting("REGISTRY_TABLE", file.RegistryTable, "igra_match_met"),
		NetworkTable:      setting("NETWORK_TABLE", file.NetworkTable, "met_match_cmonoc"),
		ThreeWayTable:     setting("THREE_WAY_TABLE", file.ThreeWayTable, "igra_met_cmonoc"),
		MinEndYear:        minEndYear,
		Precision:         precision,
		DistanceMetric:    strings.ToLower(setting("DISTANCE_METRIC", file.DistanceMetric, "euclidean")),
		StrictKeys:        strictKeys,
		Workers:           workers,
		NearestCacheSize:  cacheSize,
		PersistNormalized: persist,
		HTTPAddr:          setting("HTTP_ADDR", file.HTTPAddr, ""),
		LogLevel:          setting("LOG_LEVEL", file.LogLevel, "info"),
		LogFormat:         setting("LOG_FORMAT", file.LogFormat, "json"),
		ShutdownTimeout:   shutdownTimeout,
		KafkaEnabled:      kafkaEnabled,
		KafkaBrokers:      sharedcfg.ParseBrokers(setting("KAFKA_BROKERS", file.KafkaBrokers, "localhost:9092")),
		KafkaTopic:        setting("KAFKA_TOPIC", file.KafkaTopic, "station-links"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.OutputFormats) == 0 {
		return errors.New("OUTPUT_FORMATS is required")
	}
	for _, f := range c.OutputFormats {
		if !slices.Contains(knownFormats, f) {
			return fmt.Errorf("invalid OUTPUT_FORMATS: unknown format %q", f)
		}
	}
	if c.Precision < 0 || c.Precision > 10 {
		return errors.New("invalid PRECISION: must be 0-10")
	}
	if c.DistanceMetric != "euclidean" && c.DistanceMetric != "haversine" {
		return fmt.Errorf("invalid DISTANCE_METRIC %q: must be euclidean or haversine", c.DistanceMetric)
	}
	if c.Workers < 1 {
		return errors.New("invalid WORKERS: must be at least 1")
	}
	if c.NearestCacheSize < 0 {
		return errors.New("invalid NEAREST_CACHE_SIZE: must not be negative")
	}
	for _, t := range []struct{ env, value string }{
		{"REGISTRY_TABLE", c.RegistryTable},
		{"NETWORK_TABLE", c.NetworkTable},
		{"THREE_WAY_TABLE", c.ThreeWayTable},
	} {
		if strings.ContainsAny(t.value, `/\`) {
			return fmt.Errorf("invalid %s: must be a base name", t.env)
		}
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	return nil
}

// HasFormat reports whether the named output format is enabled.
func (c *Config) HasFormat(name string) bool {
	return slices.Contains(c.OutputFormats, name)
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read CONFIG_FILE: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
	}
	return fc, nil
}

// setting resolves one value: environment, then the YAML file, then fallback.
func setting(key, fromFile, fallback string) string {
	if fromFile != "" {
		fallback = fromFile
	}
	return sharedcfg.EnvOrDefault(key, fallback)
}

func parseInt(key, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", key, s)
	}
	return n, nil
}

func parseBool(key, s string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q is not a boolean", key, s)
	}
	return b, nil
}

func parseList(s string) []string {
	parts := sharedcfg.ParseBrokers(s)
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return parts
}
