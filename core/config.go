package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	StorageConfig struct {
		Driver string // sqlite3 (default), postgres, memory
		DSN    string
		Quota  int64 // max encoded size of a single slot, in bytes (0: unlimited)
	}

	KeysConfig struct {
		Document string
		Auth     string
		Theme    string
	}

	StudyConfig struct {
		DesignatedStudent string
		MaxUploadSize     int64
	}

	SessionConfig struct {
		ExpirationDelta time.Duration
	}

	Config struct {
		Env             string
		Build           string
		AppName         string
		Debug           bool
		TestMode        bool
		WorkDir         string
		SecretKey       string
		RollbarToken    string
		CredentialsFile string
		Storage         StorageConfig
		Keys            KeysConfig
		Study           StudyConfig
		Session         SessionConfig
	}
)

// NewConfig reads the configuration from (in order of precedence) environment variables,
// `config/.env.<env>` and `config/etudes.yaml`, found under the working directory.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Etudes")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "etudes-dev-secret")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("credentialsFile", filepath.Join("config", "principals.yaml"))
	v.SetDefault("storage.driver", "sqlite3")
	v.SetDefault("storage.dsn", "etudes.db")
	v.SetDefault("storage.quota", int64(0))
	v.SetDefault("keys.document", "studyData")
	v.SetDefault("keys.auth", "authData")
	v.SetDefault("keys.theme", "theme")
	v.SetDefault("study.designatedStudent", "")
	v.SetDefault("study.maxUploadSize", int64(10<<20))
	v.SetDefault("session.expirationDelta", 7*24*time.Hour)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetConfigName("etudes")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(wd, "config"))
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("config.viper.ReadInConfig(): %v", err)
		}
	}

	v.SetEnvPrefix("ETUDES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Env:             env,
		Build:           v.GetString("build"),
		AppName:         v.GetString("appName"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		WorkDir:         wd,
		SecretKey:       v.GetString("secretKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		CredentialsFile: v.GetString("credentialsFile"),
		Storage: StorageConfig{
			Driver: v.GetString("storage.driver"),
			DSN:    v.GetString("storage.dsn"),
			Quota:  v.GetInt64("storage.quota"),
		},
		Keys: KeysConfig{
			Document: v.GetString("keys.document"),
			Auth:     v.GetString("keys.auth"),
			Theme:    v.GetString("keys.theme"),
		},
		Study: StudyConfig{
			DesignatedStudent: CleanString(v.GetString("study.designatedStudent"), true),
			MaxUploadSize:     v.GetInt64("study.maxUploadSize"),
		},
		Session: SessionConfig{
			ExpirationDelta: v.GetDuration("session.expirationDelta"),
		},
	}
}

// Path resolves p against the working directory unless it is absolute.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}
