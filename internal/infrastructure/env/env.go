package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"browsertools/internal/application/port/output"

	"github.com/joho/godotenv"
)

var _ output.ConfigPort = (*EnvService)(nil)

type EnvService struct {
	loaded []string
}

// NewEnvService loads .env.<APP_ENV> and then .env from dir (the working
// directory when empty). Missing files are not an error. Neither file
// overrides a variable that is already set, so the process environment wins
// over .env.<APP_ENV>, which wins over .env.
func NewEnvService(dir string) *EnvService {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	svc := &EnvService{}
	for _, name := range []string{fmt.Sprintf(".env.%s", appEnv), ".env"} {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err == nil {
			svc.loaded = append(svc.loaded, path)
		}
	}

	return svc
}

// Loaded lists the dotenv files that were read.
func (e *EnvService) Loaded() []string {
	return e.loaded
}

func (e *EnvService) Get(key string) string {
	return os.Getenv(key)
}

func (e *EnvService) GetWithDefault(key string, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultValue
}

func (e *EnvService) GetBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (e *EnvService) GetInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetDuration accepts Go duration strings ("45s") or a bare number of seconds.
func (e *EnvService) GetDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
