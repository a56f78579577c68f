package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts file operations, useful for testing the resolver.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Loader reads configuration documents from disk.
type Loader struct {
	FileSystem FileSystem
}

// Load reads the YAML configuration at path into an untyped document. An
// optional .env file next to the config file is loaded into the
// environment first.
func (l Loader) Load(path string) (map[string]any, error) {
	fs := l.FileSystem
	if fs == nil {
		fs = RealFileSystem{}
	}

	envPath := filepath.Join(filepath.Dir(path), ".env")
	if fs.Exists(envPath) {
		if err := fs.LoadEnv(envPath); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", envPath, err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return v.AllSettings(), nil
}

// Load reads the YAML configuration at path with the default loader.
func Load(path string) (map[string]any, error) {
	return Loader{}.Load(path)
}
