package commands

import (
	"gemtracks/internal/components/telemetry"
	"gemtracks/internal/db"
	"gemtracks/internal/fetcher"
	"gemtracks/internal/scrapers/geology"
	"gemtracks/internal/scrapers/itunes"
	"gemtracks/lib/configutil"
	"time"
)

type GeologyConfig struct {
	DirectoryUrl     string `json:"directory_url"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
}

type ItunesConfig struct {
	SearchUrl   string `json:"search_url"`
	Limit       int    `json:"limit"`
	BypassCache bool   `json:"bypass_cache"`
}

type HttpConfig struct {
	UserAgent         string  `json:"user_agent"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

type CacheConfig struct {
	File string `json:"file"`
}

type Config struct {
	Geology   GeologyConfig    `json:"geology"`
	Itunes    ItunesConfig     `json:"itunes"`
	Http      HttpConfig       `json:"http"`
	Cache     CacheConfig      `json:"cache"`
	Database  db.Config        `json:"database"`
	Telemetry telemetry.Config `json:"telemetry"`
}

func DefaultConfig() Config {
	httpDefaults := fetcher.DefaultOptions()
	return Config{
		Geology: GeologyConfig{
			DirectoryUrl: geology.DefaultDirectoryUrl,
		},
		Itunes: ItunesConfig{
			SearchUrl: itunes.DefaultSearchUrl,
			Limit:     itunes.DefaultLimit,
		},
		Http: HttpConfig{
			UserAgent:         httpDefaults.UserAgent,
			TimeoutSeconds:    int(httpDefaults.Timeout / time.Second),
			RequestsPerSecond: httpDefaults.RequestsPerSecond,
		},
		Cache: CacheConfig{
			File: "cache.json",
		},
		Database: db.Config{
			File: "gemstones.sqlite",
		},
	}
}

// LoadConfig reads the config file on top of the defaults, then applies
// GEMTRACKS_* environment variables (including those from .env files).
func LoadConfig(path string) (Config, error) {
	configutil.LoadEnv()

	cfg, err := configutil.ReadConfigOr(path, DefaultConfig())
	if err != nil {
		return Config{}, err
	}
	configutil.EnvOverride(&cfg.Cache.File, "GEMTRACKS_CACHE_FILE")
	configutil.EnvOverride(&cfg.Database.File, "GEMTRACKS_DB_FILE")
	configutil.EnvOverride(&cfg.Database.Url, "GEMTRACKS_DB_URL")
	configutil.EnvOverride(&cfg.Database.AuthToken, "GEMTRACKS_DB_AUTH_TOKEN")
	return cfg, nil
}

func (c Config) FetcherOptions() fetcher.Options {
	return fetcher.Options{
		UserAgent:         c.Http.UserAgent,
		Timeout:           time.Duration(c.Http.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.Http.RequestsPerSecond,
		CloudflareBypass:  c.Geology.CloudflareBypass,
	}
}

func (c Config) ItunesOptions() itunes.Options {
	return itunes.Options{
		SearchUrl:   c.Itunes.SearchUrl,
		Limit:       c.Itunes.Limit,
		BypassCache: c.Itunes.BypassCache,
	}
}
