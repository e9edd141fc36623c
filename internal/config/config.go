package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Root mirrors the keys accepted from flags, SHORTS_* env vars and an
// optional config file.
type Root struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	Source struct {
		Kind            string `mapstructure:"kind"`
		Path            string `mapstructure:"path"`
		HistoricalPath  string `mapstructure:"historical_path"`
		MongoURI        string `mapstructure:"mongo_uri"`
		MongoDatabase   string `mapstructure:"mongo_database"`
		MongoCollection string `mapstructure:"mongo_collection"`
		PostgresDSN     string `mapstructure:"postgres_dsn"`
	} `mapstructure:"source"`
	Engine struct {
		VocabularyPath   string  `mapstructure:"vocabulary_path"`
		HardMaxDuration  float64 `mapstructure:"hard_max_duration"`
		ExpandSlack      float64 `mapstructure:"expand_slack"`
		OverlapThreshold float64 `mapstructure:"overlap_threshold"`
		MaxKept          int     `mapstructure:"max_kept"`
	} `mapstructure:"engine"`
	Cache struct {
		MaxEntries int `mapstructure:"max_entries"`
	} `mapstructure:"cache"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

const EnvPrefix = "SHORTS"

// New returns a viper instance with defaults and env binding in place.
// Callers bind flags before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	addr := ":3000"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}
	v.SetDefault("server.addr", addr)
	v.SetDefault("source.kind", "json")
	v.SetDefault("source.path", "data/all_transcripts.json")
	v.SetDefault("source.historical_path", "data/historical-performance.json")
	v.SetDefault("source.mongo_uri", "")
	v.SetDefault("source.mongo_database", "shorts")
	v.SetDefault("source.mongo_collection", "episodes")
	v.SetDefault("source.postgres_dsn", "")
	v.SetDefault("engine.vocabulary_path", "")
	v.SetDefault("engine.hard_max_duration", 130)
	v.SetDefault("engine.expand_slack", 10)
	v.SetDefault("engine.overlap_threshold", 0.75)
	v.SetDefault("engine.max_kept", 300)
	v.SetDefault("cache.max_entries", 1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	return v
}

// Load reads the optional config file and decodes everything into Root.
func Load(v *viper.Viper, file string) (Root, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if errors.As(err, &nf) || os.IsNotExist(err) {
				return Root{}, fmt.Errorf("config file %s not found", file)
			}
			return Root{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	var r Root
	if err := v.Unmarshal(&r); err != nil {
		return Root{}, fmt.Errorf("decode config: %w", err)
	}
	return r, nil
}
