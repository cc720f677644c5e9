package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	StorageDriverS3    = "s3"
	StorageDriverMinIO = "minio"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	ServerPort string

	JWTSecret string

	// RedisURL enables the following-feed cache and the feed event stream.
	// Left empty, feeds are served straight from Postgres.
	RedisURL    string
	WorkerCount int

	StorageDriver     string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Bucket          string
	S3PublicURL       string
	S3UseSSL          bool

	SuggestionSampleSize int
	SuggestionLimit      int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	storageDriver := getEnv("STORAGE_DRIVER", StorageDriverS3)
	if storageDriver != StorageDriverS3 && storageDriver != StorageDriverMinIO {
		return nil, errors.New("STORAGE_DRIVER must be s3 or minio")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DBMaxOpenConns:    getPositiveInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getPositiveInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: time.Duration(getPositiveInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute,

		ServerPort: getEnv("SERVER_PORT", "8080"),

		JWTSecret: jwtSecret,

		RedisURL:    os.Getenv("REDIS_URL"),
		WorkerCount: getPositiveInt("WORKER_COUNT", 2),

		StorageDriver:     storageDriver,
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          getEnv("S3_REGION", "auto"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3PublicURL:       os.Getenv("S3_PUBLIC_URL"),
		S3UseSSL:          getBool("S3_USE_SSL", true),

		SuggestionSampleSize: getPositiveInt("SUGGESTION_SAMPLE_SIZE", 10),
		SuggestionLimit:      getPositiveInt("SUGGESTION_LIMIT", 4),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getPositiveInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
