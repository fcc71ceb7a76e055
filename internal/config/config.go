package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/adrg/xdg"
	"github.com/leighmacdonald/kmon/internal/kernel"
)

var (
	errConfigRead  = errors.New("failed to read config file")
	errLoggerInit  = errors.New("failed to initialize logger")
	ErrInvalidRate = errors.New("refresh rate must be a positive number of milliseconds")
	ErrInvalidSort = errors.New("unknown sort key")
	ErrLogSource   = errors.New("unknown kernel log source")
)

const (
	ConfigDirName     = "kmon"
	DefaultConfigName = "kmon"
	DefaultDBName     = "kmon.db"
	DefaultLogName    = "kmon.log"
	CacheDirName      = "cache"
	EnvPrefix         = "kmon"
	DefaultRate       = 250
	DefaultLogFile    = "/var/log/kern.log"
)

// LogSource selects where kernel activity is read from.
type LogSource string

const (
	LogSourceDmesg LogSource = "dmesg"
	LogSourceFile  LogSource = "file"
)

type Config struct {
	// Rate is the poll interval in milliseconds.
	Rate           int       `mapstructure:"rate"`
	Sort           string    `mapstructure:"sort"`
	Reverse        bool      `mapstructure:"reverse"`
	LogSource      LogSource `mapstructure:"log_source"`
	LogFile        string    `mapstructure:"log_file"`
	LogLines       int       `mapstructure:"log_lines"`
	AccentColor    string    `mapstructure:"accent_color"`
	HistoryEnabled bool      `mapstructure:"history_enabled"`
	Debug          bool      `mapstructure:"debug"`
}

// Interval is the poll interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Rate) * time.Millisecond
}

// SortOptions converts the sort settings for the module source.
func (c Config) SortOptions() kernel.SortOptions {
	return kernel.SortOptions{Key: kernel.SortKey(c.Sort), Reverse: c.Reverse}
}

func (c Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}

	return slog.LevelInfo
}

func (c Config) Validate() error {
	if c.Rate <= 0 {
		return errors.Join(fmt.Errorf("rate: %d", c.Rate), ErrInvalidRate)
	}

	switch kernel.SortKey(c.Sort) {
	case kernel.SortName, kernel.SortSize, kernel.SortUsed:
	default:
		return errors.Join(fmt.Errorf("sort: %q", c.Sort), ErrInvalidSort)
	}

	switch c.LogSource {
	case LogSourceDmesg, LogSourceFile:
	default:
		return errors.Join(fmt.Errorf("log_source: %q", c.LogSource), ErrLogSource)
	}

	return nil
}

// Path generates a path pointing to the filename under this apps defined $XDG_CONFIG_HOME.
func Path(name string) string {
	fullPath, errFullPath := xdg.ConfigFile(path.Join(ConfigDirName, name))
	if errFullPath != nil {
		panic(errFullPath)
	}

	return fullPath
}

func PathCache(name string) string {
	cacheDir, found := os.LookupEnv("CACHE_DIR")
	if found && cacheDir != "" {
		return cacheDir
	}

	return path.Join(xdg.CacheHome, ConfigDirName, name)
}

// DataPath points to name under $XDG_DATA_HOME, creating the parent directory.
func DataPath(name string) (string, error) {
	return xdg.DataFile(path.Join(ConfigDirName, name))
}

// LoggerInit sets up the slog global handler to use a log file as we cant print to the console.
func LoggerInit(logPath string, level slog.Level) (io.Closer, error) {
	logFile, errLogFile := os.Create(Path(logPath))
	if errLogFile != nil {
		return nil, errors.Join(errLogFile, errLoggerInit)
	}

	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	}))

	slog.SetDefault(logger)

	return logFile, nil
}
