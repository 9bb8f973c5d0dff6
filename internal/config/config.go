package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Remote store modes accepted by REMOTE_STORE.
const (
	RemoteStorePresent = "present"
	RemoteStoreAbsent  = "absent"
)

type Config struct {
	Port         int
	StaticDir    string
	LogDirectory string

	CameraDevice string
	CameraWidth  int
	CameraHeight int
	CameraFacing string
	// Camera access from a non-loopback origin without TLS is refused unless this is set.
	AllowInsecureCamera bool

	TickIntervalMs  int
	SeriesCapacity  int
	HistoryPageSize int

	RemoteStore     string // present | absent
	RemoteStorePath string // sqlite file holding the pedestrians table
	StoreQueueSize  int
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnvAsInt("PORT", 8080),
		StaticDir:           getEnv("STATIC_DIR", filepath.Join(".", "static")),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
		CameraDevice:        getEnv("CAMERA_DEVICE", "0"),
		CameraWidth:         getEnvAsInt("CAMERA_WIDTH", 640),
		CameraHeight:        getEnvAsInt("CAMERA_HEIGHT", 480),
		CameraFacing:        getEnv("CAMERA_FACING", "user"),
		AllowInsecureCamera: getEnvAsBool("ALLOW_INSECURE_CAMERA", false),
		TickIntervalMs:      getEnvAsInt("TICK_INTERVAL_MS", 1000),
		SeriesCapacity:      getEnvAsInt("SERIES_CAPACITY", 20),
		HistoryPageSize:     getEnvAsInt("HISTORY_PAGE_SIZE", 50),
		RemoteStorePath:     getEnv("REMOTE_STORE_PATH", ""),
		StoreQueueSize:      getEnvAsInt("STORE_QUEUE_SIZE", 100),
	}
	cfg.RemoteStore = ResolveRemoteStore(getEnv("REMOTE_STORE", ""), cfg.RemoteStorePath)

	return cfg
}

// ResolveRemoteStore turns the REMOTE_STORE setting into present or absent.
// An empty or unknown value means present only when a store path is configured,
// and present without a path degrades to absent.
func ResolveRemoteStore(mode, path string) string {
	if path == "" {
		return RemoteStoreAbsent
	}

	switch strings.ToLower(strings.TrimSpace(mode)) {
	case RemoteStoreAbsent:
		return RemoteStoreAbsent
	default:
		return RemoteStorePresent
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
