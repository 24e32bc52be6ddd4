package env

import (
	"os"

	"github.com/joho/godotenv"
)

var Env map[string]string

// GetEnv resolves a config value: the loaded .env file wins, then the process
// environment (the Docker/CI path), then the default.
func GetEnv(key, def string) string {
	if val, ok := Env[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the .env file. The relative fallbacks cover binaries run
// from cmd/ subdirectories during development.
func SetupEnvFile() {
	envFiles := []string{
		".env",
		"../../.env",
		"../../../.env",
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			return
		}
	}

	panic("No .env file found in any of the expected locations")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
