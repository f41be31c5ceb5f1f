package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/joho/godotenv"

	"github.com/netisu/planet-renderer/globe"
	"github.com/netisu/planet-renderer/viewer"
)

type Config struct {
	PostKey       string
	ServerAddress string
	S3AccessKey   string
	S3SecretKey   string
	S3Endpoint    string
	S3Region      string
	S3Bucket      string
	TextureSource string // directory or URL prefix holding the earth maps
	OutputDir     string // used when no bucket is configured
	RootDir       string
}

// Helper to get environment variables with a default value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func loadConfig() *Config {
	rootDir := getEnv("RENDERER_ROOT_DIR", "/var/www/renderer")
	_ = godotenv.Load(path.Join(rootDir, ".env"))

	return &Config{
		PostKey:       os.Getenv("POST_KEY"),
		ServerAddress: getEnv("SERVER_ADDRESS", ":8001"),
		S3AccessKey:   os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:   os.Getenv("S3_SECRET_KEY"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		S3Region:      os.Getenv("S3_REGION"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		TextureSource: getEnv("TEXTURE_SOURCE", path.Join(rootDir, "textures")),
		OutputDir:     getEnv("OUTPUT_DIR", path.Join(rootDir, "output")),
		RootDir:       rootDir,
	}
}

func newStore(cfg *Config) (viewer.Store, error) {
	if cfg.S3Bucket == "" {
		log.Printf("No S3 bucket configured, writing renders to %s", cfg.OutputDir)
		return viewer.FileStore{Root: cfg.OutputDir}, nil
	}

	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Endpoint:         aws.String(cfg.S3Endpoint),
		Region:           aws.String(cfg.S3Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	sess, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return viewer.S3Store{Client: s3.New(sess), Bucket: cfg.S3Bucket}, nil
}

// Initializes everything once.
func main() {
	cfg := loadConfig()

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	server := NewServer(cfg, store, globe.NewAssetCache(httpClient))

	http.HandleFunc("/", server.handleRender)

	fmt.Printf("Starting server on %s\n", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, nil); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
