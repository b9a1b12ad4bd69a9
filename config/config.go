package config

import (
	"log"
	"os"
	"strconv"
)

const (
	defaultPhotoMaxSize     = 240
	defaultPhotoJpegQuality = 70

	defaultStateWriterQueueSize  = 100
	defaultNumStateWriterWorkers = 1
)

type Config struct {
	// database path
	DatabasePath string

	// photo encoding settings (longest side in px, JPEG quality percent)
	PhotoMaxSize     int
	PhotoJpegQuality int

	// memorization-state writer settings
	StateWriterQueueSize  int
	NumStateWriterWorkers int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	cfg := Config{
		DatabasePath:          getEnvOrDefault("DATABASE_PATH", "facenote.db"),
		PhotoMaxSize:          getEnvIntOrDefault("PHOTO_MAX_SIZE", defaultPhotoMaxSize),
		PhotoJpegQuality:      getEnvIntOrDefault("PHOTO_JPEG_QUALITY", defaultPhotoJpegQuality),
		StateWriterQueueSize:  getEnvIntOrDefault("STATE_WRITER_QUEUE_SIZE", defaultStateWriterQueueSize),
		NumStateWriterWorkers: getEnvIntOrDefault("NUM_STATE_WRITER_WORKERS", defaultNumStateWriterWorkers),
	}

	return cfg, nil
}
