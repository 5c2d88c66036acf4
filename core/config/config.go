package config

import (
	"reflect"
	"strings"

	"inventory-sync/core/database"
	"inventory-sync/core/logger"
	"inventory-sync/core/server"
	"inventory-sync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the destination database.
	Database database.Config `mapstructure:"database"`
	// Sync holds configuration for the reconciliation source and audit.
	Sync SyncConfig `mapstructure:"sync"`
}

// SyncConfig configures where the source of truth is loaded from and where
// serialized diffs are written for audit.
type SyncConfig struct {
	// SourceBackend selects the source-of-truth backend: file or snapshot
	// (an object in storage).
	SourceBackend string `mapstructure:"source_backend" default:"file"`
	// SourcePath is the snapshot file path when SourceBackend is file.
	SourcePath string `mapstructure:"source_path" default:"inventory.yaml"`
	// SourceObject is the snapshot object name when SourceBackend is
	// snapshot.
	SourceObject string `mapstructure:"source_object" default:"snapshots/inventory.json"`
	// AuditEnabled uploads the serialized diff of every run to storage.
	AuditEnabled bool `mapstructure:"audit_enabled" default:"false"`
	// AuditPrefix is the object prefix audit diffs are written under.
	AuditPrefix string `mapstructure:"audit_prefix" default:"audit/diffs"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// Load .env file if it exists; ignore the error in production where
	// configuration comes from real environment variables.
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
