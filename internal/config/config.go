package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"storepos/backend/internal/domain"
)

const (
	BackendNone     = "none"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	Port            string
	AllowedOrigin   string
	RemoteBackend   string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	DatabaseURL     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	DynamoDBTable   string
	AWSRegion       string
	DynamoEndpoint  string
	LocalDataDir    string
	KeyPrefix       string
	RemoteTimeout   time.Duration
	StoreID         string
	Timezone        string
	AuthSecret      string
	AccessTokenTTL  time.Duration
	StaffAccounts   []domain.UserAccount
}

// Load reads .env when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] WARN: .env not loaded: %v", err)
	}
	return fromEnv()
}

func fromEnv() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigin:   getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		RemoteBackend:   strings.ToLower(getEnv("REMOTE_BACKEND", BackendNone)),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         redisDB,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "storepos"),
		MongoCollection: getEnv("MONGO_COLLECTION", "records"),
		DynamoDBTable:   getEnv("DYNAMODB_TABLE", "storepos-records"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		DynamoEndpoint:  os.Getenv("DYNAMODB_ENDPOINT"),
		LocalDataDir:    getEnv("LOCAL_DATA_DIR", "data"),
		KeyPrefix:       os.Getenv("KEY_PREFIX"),
		RemoteTimeout:   getTimeout("REMOTE_TIMEOUT_MS", 3000, time.Millisecond),
		StoreID:         getEnv("DEFAULT_STORE_ID", "main"),
		Timezone:        getEnv("TIMEZONE", "UTC"),
		AuthSecret:      strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL_MINUTES", 480, time.Minute),
		StaffAccounts:   ParseAccounts(os.Getenv("STAFF_ACCOUNTS")),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves TIMEZONE. Unknown zones fall back to UTC with a warning.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("[config] WARN: unknown TIMEZONE %q, using UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}

// ParseAccounts reads a semicolon separated list of username:password[:role]
// entries. Passwords may be bcrypt hashes. Malformed entries are skipped.
func ParseAccounts(raw string) []domain.UserAccount {
	var accounts []domain.UserAccount
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		username, rest, ok := strings.Cut(entry, ":")
		username = strings.TrimSpace(username)
		if !ok || username == "" || rest == "" {
			log.Printf("[config] WARN: skipping malformed STAFF_ACCOUNTS entry for %q", username)
			continue
		}

		password, role := rest, ""
		if idx := strings.LastIndex(rest, ":"); idx > 0 {
			switch candidate := rest[idx+1:]; candidate {
			case domain.RoleAdmin, domain.RoleStaff:
				password, role = rest[:idx], candidate
			}
		}
		accounts = append(accounts, domain.UserAccount{Username: username, Password: password, Role: role})
	}
	return accounts
}

func getEnv(key string, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}

func getDuration(key string, fallback int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(fallback) * unit
}

// getTimeout is getDuration that also accepts zero, meaning no timeout.
func getTimeout(key string, fallback int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(fallback) * unit
}
