package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/chenjianlong/filetask/pkg/retry"
	"github.com/chenjianlong/filetask/pkg/transfer"
)

const (
	DefaultConfigPath     = "filetask.ini"
	DefaultMaxConcurrency = 4
	DefaultTaskTimeout    = 30 * time.Second
)

// Environment variables read by Load. The first two are the public knobs;
// the rest mirror keys of the [engine] section.
const (
	EnvMaxConcurrency = "MAX_CONCURRENCY"
	EnvTaskTimeoutMS  = "TASK_TIMEOUT_MS"
	EnvConfigPath     = "FILETASK_CONFIG"
	EnvLogLevel       = "LOG_LEVEL"
	EnvSettleMS       = "UPLOAD_SETTLE_MS"
)

type Config struct {
	MaxConcurrency int
	TaskTimeout    time.Duration
	QueueLimit     int
	Retry          retry.Policy
	SettleDelay    time.Duration
	LogLevel       string
	Transfer       transfer.Config
}

func Default() Config {
	return Config{
		MaxConcurrency: DefaultMaxConcurrency,
		TaskTimeout:    DefaultTaskTimeout,
		Retry:          retry.DefaultPolicy(),
		LogLevel:       "warn",
		Transfer: transfer.Config{
			Kind:  transfer.KindLocal,
			Local: transfer.LocalConfig{Dir: filepath.Join(os.TempDir(), "filetask")},
		},
	}
}

// Path returns the config file path named by the environment, or the default.
func Path(getenv func(string) string) string {
	if p := strings.TrimSpace(getenv(EnvConfigPath)); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Load reads the optional INI file at path and applies environment overrides.
// A missing file is not an error. Malformed numeric values, from either
// source, fall back to their defaults.
func Load(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	file := ini.Empty()
	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			loaded, err := ini.Load(path)
			if err != nil {
				return Config{}, err
			}
			file = loaded
		case !errors.Is(err, fs.ErrNotExist):
			return Config{}, err
		}
	}
	if err := checkBackendSections(file); err != nil {
		return Config{}, err
	}
	return fromFile(file, getenv), nil
}

// backendSections are the INI sections that each select a transfer backend.
var backendSections = []string{"s3", "ftp", "local"}

func checkBackendSections(file *ini.File) error {
	var found []string
	for _, name := range backendSections {
		if file.HasSection(name) {
			found = append(found, "["+name+"]")
		}
	}
	if len(found) > 1 {
		return fmt.Errorf("config selects more than one backend: %s", strings.Join(found, ", "))
	}
	return nil
}

func fromFile(file *ini.File, getenv func(string) string) Config {
	cfg := Default()

	engine := file.Section("engine")
	override(engine, "max_concurrency", getenv(EnvMaxConcurrency))
	override(engine, "task_timeout_ms", getenv(EnvTaskTimeoutMS))
	override(engine, "settle_ms", getenv(EnvSettleMS))
	override(engine, "log_level", getenv(EnvLogLevel))

	cfg.MaxConcurrency = positiveInt(engine.Key("max_concurrency"), DefaultMaxConcurrency)
	cfg.TaskTimeout = millis(engine.Key("task_timeout_ms"), DefaultTaskTimeout)
	cfg.QueueLimit = nonNegativeInt(engine.Key("queue_limit"), 0)
	cfg.SettleDelay = time.Duration(nonNegativeInt(engine.Key("settle_ms"), 0)) * time.Millisecond
	cfg.Retry.Attempts = positiveInt(engine.Key("retry_attempts"), cfg.Retry.Attempts)
	cfg.Retry.Backoff.Base = millis(engine.Key("retry_base_ms"), cfg.Retry.Backoff.Base)
	cfg.Retry.Backoff.Max = millis(engine.Key("retry_max_ms"), cfg.Retry.Backoff.Max)
	if lvl := strings.TrimSpace(engine.Key("log_level").String()); lvl != "" {
		cfg.LogLevel = lvl
	}

	if s3Section, err := file.GetSection("s3"); err == nil {
		cfg.Transfer = transfer.Config{
			Kind: transfer.KindS3,
			S3: transfer.S3Config{
				Endpoint:        s3Section.Key("endpoint").String(),
				BucketName:      s3Section.Key("bucketName").String(),
				AccessKeyID:     s3Section.Key("accessKeyID").String(),
				SecretAccessKey: s3Section.Key("secretAccessKey").String(),
				Secure:          s3Section.Key("secure").MustBool(true),
				Prefix:          s3Section.Key("prefix").String(),
			},
		}
	} else if ftpSection, err := file.GetSection("ftp"); err == nil {
		cfg.Transfer = transfer.Config{
			Kind: transfer.KindFTP,
			FTP: transfer.FTPConfig{
				Addr:     ftpSection.Key("addr").String(),
				User:     ftpSection.Key("user").String(),
				Password: ftpSection.Key("password").String(),
				SubDir:   ftpSection.Key("subDir").String(),
			},
		}
	} else if localSection, err := file.GetSection("local"); err == nil {
		if dir := localSection.Key("dir").String(); dir != "" {
			cfg.Transfer.Local.Dir = dir
		}
	}

	return cfg
}

func override(section *ini.Section, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		section.Key(key).SetValue(value)
	}
}

func positiveInt(key *ini.Key, def int) int {
	if v := key.MustInt(def); v > 0 {
		return v
	}
	return def
}

func nonNegativeInt(key *ini.Key, def int) int {
	if v := key.MustInt(def); v >= 0 {
		return v
	}
	return def
}

func millis(key *ini.Key, def time.Duration) time.Duration {
	return time.Duration(positiveInt(key, int(def/time.Millisecond))) * time.Millisecond
}
