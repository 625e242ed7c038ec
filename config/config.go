package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Snapshot store kinds
const (
	SnapshotStoreMongo = "mongo"
	SnapshotStoreS3    = "s3"
)

// Config of the analytics-service, read once at start
type Config struct {
	Port               int
	LogLevel           logrus.Level
	CORSAllowedOrigins []string

	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	JWTSecret    string
	StoreTimeout time.Duration

	SnapshotStore string
	S3Bucket      string
	S3Prefix      string
	S3Region      string
	S3EndpointURL string
}

var defaults = map[string]interface{}{
	"PORT":                 5003,
	"LOG_LEVEL":            "info",
	"CORS_ALLOWED_ORIGINS": "*",
	"MYSQL_HOST":           "mysql_db",
	"MYSQL_PORT":           3306,
	"MYSQL_USER":           "user",
	"MYSQL_PASSWORD":       "password",
	"MYSQL_DB":             "data_collection",
	"MONGO_URI":            "mongodb://mongo_db:27017/",
	"MONGO_DATABASE":       "data_analytics",
	"MONGO_COLLECTION":     "analytics",
	"STORE_TIMEOUT":        "5s",
	"SNAPSHOT_STORE":       SnapshotStoreMongo,
	"S3_PREFIX":            "snapshots",
	"REGION":               "eu-west-1",
}

// Load reads the optional .env files then the environment
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is not an error, the environment is enough
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	level, err := logrus.ParseLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	storeTimeout, err := time.ParseDuration(v.GetString("STORE_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("STORE_TIMEOUT: %w", err)
	}

	c := &Config{
		Port:               v.GetInt("PORT"),
		LogLevel:           level,
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		MySQLHost:          v.GetString("MYSQL_HOST"),
		MySQLPort:          v.GetInt("MYSQL_PORT"),
		MySQLUser:          v.GetString("MYSQL_USER"),
		MySQLPassword:      v.GetString("MYSQL_PASSWORD"),
		MySQLDatabase:      v.GetString("MYSQL_DB"),
		MongoURI:           v.GetString("MONGO_URI"),
		MongoDatabase:      v.GetString("MONGO_DATABASE"),
		MongoCollection:    v.GetString("MONGO_COLLECTION"),
		JWTSecret:          v.GetString("JWT_SECRET_KEY"),
		StoreTimeout:       storeTimeout,
		SnapshotStore:      strings.ToLower(v.GetString("SNAPSHOT_STORE")),
		S3Bucket:           v.GetString("S3_BUCKET"),
		S3Prefix:           v.GetString("S3_PREFIX"),
		S3Region:           v.GetString("REGION"),
		S3EndpointURL:      v.GetString("S3_ENDPOINT_URL"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the values which have no usable default
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("env var JWT_SECRET_KEY is not provided or empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.StoreTimeout < 0 {
		errs = append(errs, fmt.Errorf("invalid STORE_TIMEOUT %s", c.StoreTimeout))
	}
	switch c.SnapshotStore {
	case SnapshotStoreMongo:
	case SnapshotStoreS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("env var S3_BUCKET is required with SNAPSHOT_STORE=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SNAPSHOT_STORE %q", c.SnapshotStore))
	}
	return errors.Join(errs...)
}

// Addr listen address of the http server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func splitList(value string) []string {
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
