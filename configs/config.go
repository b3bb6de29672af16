package configs

import (
	"fmt"
	"os"
	"strconv"
)

const (
	StorageDriverFile     = "file"
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
	StorageDriverS3       = "s3"
)

type Config struct {
	HTTP struct {
		Port string
	}
	GRPC struct {
		Port string
	}
	Storage struct {
		Driver     string
		ReadPolicy string
		FilePath   string
		Document   string
	}
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
	}
	S3 struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		Object    string
		Region    string
		UseSSL    bool
	}
}

func NewConfig() (*Config, error) {
	var cfg Config

	if envPort := os.Getenv("HTTP_PORT"); envPort != "" {
		cfg.HTTP.Port = envPort
	} else {
		cfg.HTTP.Port = "3000"
	}

	if envGRPCPort := os.Getenv("GRPC_PORT"); envGRPCPort != "" {
		cfg.GRPC.Port = envGRPCPort
	}

	if envDriver := os.Getenv("STORAGE_DRIVER"); envDriver != "" {
		cfg.Storage.Driver = envDriver
	} else {
		cfg.Storage.Driver = StorageDriverFile
	}
	switch cfg.Storage.Driver {
	case StorageDriverFile, StorageDriverMemory, StorageDriverPostgres, StorageDriverS3:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	if envPolicy := os.Getenv("STORAGE_READ_POLICY"); envPolicy != "" {
		cfg.Storage.ReadPolicy = envPolicy
	} else {
		cfg.Storage.ReadPolicy = "lenient"
	}
	if cfg.Storage.ReadPolicy != "lenient" && cfg.Storage.ReadPolicy != "strict" {
		return nil, fmt.Errorf("unknown STORAGE_READ_POLICY %q", cfg.Storage.ReadPolicy)
	}

	if envFile := os.Getenv("USERS_FILE"); envFile != "" {
		cfg.Storage.FilePath = envFile
	} else {
		cfg.Storage.FilePath = "./users.json"
	}

	if envDocument := os.Getenv("USERS_DOCUMENT"); envDocument != "" {
		cfg.Storage.Document = envDocument
	} else {
		cfg.Storage.Document = "users"
	}

	if envDBHost := os.Getenv("POSTGRES_HOST"); envDBHost != "" {
		cfg.DB.Host = envDBHost
	}

	if envDBPort := os.Getenv("POSTGRES_PORT"); envDBPort != "" {
		cfg.DB.Port = envDBPort
	} else {
		cfg.DB.Port = "5432"
	}

	if envDBUser := os.Getenv("POSTGRES_USER"); envDBUser != "" {
		cfg.DB.User = envDBUser
	}

	if envDBPassword := os.Getenv("POSTGRES_PASSWORD"); envDBPassword != "" {
		cfg.DB.Password = envDBPassword
	}

	if envDBDatabase := os.Getenv("POSTGRES_DB"); envDBDatabase != "" {
		cfg.DB.Database = envDBDatabase
	}

	cfg.S3.Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3.AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.S3.SecretKey = os.Getenv("S3_SECRET_KEY")
	cfg.S3.Bucket = os.Getenv("S3_BUCKET")
	cfg.S3.Region = os.Getenv("S3_REGION")

	if envObject := os.Getenv("S3_OBJECT"); envObject != "" {
		cfg.S3.Object = envObject
	} else {
		cfg.S3.Object = "users.json"
	}

	if envUseSSL := os.Getenv("S3_USE_SSL"); envUseSSL != "" {
		useSSL, err := strconv.ParseBool(envUseSSL)
		if err != nil {
			return nil, fmt.Errorf("invalid S3_USE_SSL value %q: %w", envUseSSL, err)
		}
		cfg.S3.UseSSL = useSSL
	}

	return &cfg, nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Database)
}
