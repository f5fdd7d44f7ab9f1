// Package config reads the YAML configuration shared by the api, web and tui
// commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Storage drivers.
const (
	DriverFS = "fs"
	DriverS3 = "s3"
)

// Preference store drivers.
const (
	PrefsMemory   = "memory"
	PrefsPostgres = "postgres"
)

const (
	defaultAPIListen     = ":8080"
	defaultConsoleListen = ":8081"
	defaultBackendURL    = "http://localhost:8080"
	defaultTimeout       = 10 * time.Second
	defaultLoginURL      = "/login"
	defaultSessionTTL    = 30 * time.Minute
	defaultSizeSchedule  = "@every 15m"
	defaultPattern       = "*"
)

var (
	// ErrUnknownDriver is returned for an unsupported storage driver.
	ErrUnknownDriver = errors.New("unknown storage driver")
	// ErrMissingStoreDir is returned when the fs driver has no store directory.
	ErrMissingStoreDir = errors.New("storage.storedir is required for the fs driver")
	// ErrUnknownPrefsDriver is returned for an unsupported preference store.
	ErrUnknownPrefsDriver = errors.New("unknown preferences driver")
	// ErrMissingDatabaseURL is returned when the postgres preference store has no URL.
	ErrMissingDatabaseURL = errors.New("console.preferences.dburl is required for the postgres driver")
	// ErrInvalidLimits is returned when a page size list contains a non-positive value.
	ErrInvalidLimits = errors.New("page sizes must be positive")
	// ErrInvalidRateLimit is returned for a negative rate limit.
	ErrInvalidRateLimit = errors.New("api.ratelimit must not be negative")
)

// Config is the struct for the configuration
type Config struct {
	LogLevel string        `yaml:"loglevel"`
	API      APIConfig     `yaml:"api"`
	Storage  StorageConfig `yaml:"storage"`
	Console  ConsoleConfig `yaml:"console"`
}

// APIConfig configures the listing API server.
type APIConfig struct {
	Listen string `yaml:"listen"`
	// Users maps basic-auth user names to passwords.
	Users        map[string]string `yaml:"users"`
	RateLimit    float64           `yaml:"ratelimit"`
	Burst        int               `yaml:"burst"`
	SizeSchedule string            `yaml:"sizeschedule"`
}

// StorageConfig selects and configures the object store behind the API.
type StorageConfig struct {
	Driver   string   `yaml:"driver"`
	StoreDir string   `yaml:"storedir"`
	S3       S3Config `yaml:"s3"`
}

// S3Config holds the S3 connection settings.
type S3Config struct {
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"accesskey"`
	SecretKey     string `yaml:"secretkey"`
	Region        string `yaml:"region"`
	SsoAwsProfile string `yaml:"ssoawsprofile"`
	// S3cfg is an s3cmd style credentials file, used when no keys are set.
	S3cfg string `yaml:"s3cfg"`
}

// ConsoleConfig configures the web and terminal consoles.
type ConsoleConfig struct {
	Listen      string        `yaml:"listen"`
	Backend     BackendConfig `yaml:"backend"`
	LoginURL    string        `yaml:"loginurl"`
	// SessionTTL is how long an idle web session lives.
	SessionTTL  time.Duration `yaml:"sessionttl"`
	Users       []User        `yaml:"users"`
	Buckets     ListingConfig `yaml:"buckets"`
	Files       ListingConfig `yaml:"files"`
	Preferences PrefsConfig   `yaml:"preferences"`
}

// BackendConfig tells the consoles how to reach the listing API.
type BackendConfig struct {
	URL      string        `yaml:"url"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
	Insecure bool          `yaml:"insecure"`
}

// User is a console login.
type User struct {
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Admin    bool   `yaml:"admin"`
}

// ListingConfig holds the page sizes and default filter of one listing.
type ListingConfig struct {
	Limits  []int  `yaml:"limits"`
	Limit   int    `yaml:"limit"`
	Pattern string `yaml:"pattern"`
	// Level is the session level required to open the listing.
	Level string `yaml:"level"`
}

// PrefsConfig selects where listing preferences are kept.
type PrefsConfig struct {
	Driver      string `yaml:"driver"`
	DatabaseURL string `yaml:"dburl"`
}

// ReadYamlCnxFile reads a yaml file and returns a Config struct with
// defaults applied
func ReadYamlCnxFile(filename string) (Config, error) {
	var config Config

	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return config, fmt.Errorf("error reading YAML file: %w", err)
	}

	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return config, fmt.Errorf("error parsing YAML file: %w", err)
	}
	config.SetDefaults()
	return config, nil
}

// SetDefaults fills every unset field with its default value.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.API.Listen == "" {
		c.API.Listen = defaultAPIListen
	}
	if c.API.SizeSchedule == "" {
		c.API.SizeSchedule = defaultSizeSchedule
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverFS
	}
	if c.Console.Listen == "" {
		c.Console.Listen = defaultConsoleListen
	}
	if c.Console.Backend.URL == "" {
		c.Console.Backend.URL = defaultBackendURL
	}
	if c.Console.Backend.Timeout <= 0 {
		c.Console.Backend.Timeout = defaultTimeout
	}
	if c.Console.LoginURL == "" {
		c.Console.LoginURL = defaultLoginURL
	}
	if c.Console.SessionTTL <= 0 {
		c.Console.SessionTTL = defaultSessionTTL
	}
	c.Console.Buckets.setDefaults([]int{5, 10, 25, 50, 100})
	c.Console.Files.setDefaults([]int{5, 10, 25, 50, 100})
	if c.Console.Preferences.Driver == "" {
		c.Console.Preferences.Driver = PrefsMemory
	}
}

func (l *ListingConfig) setDefaults(limits []int) {
	if len(l.Limits) == 0 {
		l.Limits = limits
	}
	if l.Limit <= 0 {
		l.Limit = 10
	}
	if l.Pattern == "" {
		l.Pattern = defaultPattern
	}
}

// ValidateAPI checks the settings needed by the api command.
func (c *Config) ValidateAPI() error {
	switch c.Storage.Driver {
	case DriverFS:
		if c.Storage.StoreDir == "" {
			return ErrMissingStoreDir
		}
	case DriverS3:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver)
	}
	if c.API.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	return nil
}

// ValidateConsole checks the settings needed by the web and tui commands.
func (c *Config) ValidateConsole() error {
	for _, l := range [][]int{c.Console.Buckets.Limits, c.Console.Files.Limits} {
		for _, n := range l {
			if n <= 0 {
				return fmt.Errorf("%w: %d", ErrInvalidLimits, n)
			}
		}
	}
	switch c.Console.Preferences.Driver {
	case PrefsMemory:
	case PrefsPostgres:
		if c.Console.Preferences.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPrefsDriver, c.Console.Preferences.Driver)
	}
	return nil
}

// FindUser returns the console user with the given name and password.
func (c *ConsoleConfig) FindUser(name, password string) (User, bool) {
	for _, u := range c.Users {
		if u.Name == name && u.Password == password {
			return u, true
		}
	}
	return User{}, false
}
