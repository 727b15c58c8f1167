package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/yuya-takeyama/strict-dir-sync/internal/checksum"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/fingerprint"
)

const (
	EnvChunkSize = "STRICT_DIR_SYNC_CHUNK_SIZE"
	EnvMaxChunks = "STRICT_DIR_SYNC_MAX_CHUNKS"
	EnvDigest    = "STRICT_DIR_SYNC_DIGEST"
)

// Config holds the options shared by every subcommand.
type Config struct {
	DryRun    bool
	Quiet     bool
	Verbose   bool
	Excludes  []string
	ChunkSize int
	MaxChunks int
	Digest    string
}

func Default() Config {
	return Config{
		ChunkSize: fingerprint.DefaultChunkSize,
		MaxChunks: fingerprint.DefaultMaxChunks,
		Digest:    checksum.AlgorithmXXHash,
	}
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv returns the defaults overridden by the environment.
func FromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := Default()

	if v, ok := lookup(EnvChunkSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvChunkSize, err)
		}
		cfg.ChunkSize = n
	}
	if v, ok := lookup(EnvMaxChunks); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvMaxChunks, err)
		}
		cfg.MaxChunks = n
	}
	if v, ok := lookup(EnvDigest); ok && v != "" {
		cfg.Digest = v
	}
	return cfg, nil
}

// BindFlags registers the shared flags on fs. The current values of cfg
// are the flag defaults, so flags given on the command line win over the
// environment.
func (cfg *Config) BindFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&cfg.DryRun, "dryrun", cfg.DryRun, "Shows operations without executing")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "Suppress non-error output")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Log debug output")
	fs.StringSliceVar(&cfg.Excludes, "exclude", cfg.Excludes, "Exclude patterns (multiple allowed, trailing / excludes a directory)")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "Bytes per sampled chunk when fingerprinting")
	fs.IntVar(&cfg.MaxChunks, "max-chunks", cfg.MaxChunks, "Number of chunks sampled when fingerprinting")
	fs.StringVar(&cfg.Digest, "digest", cfg.Digest, "Fingerprint digest (xxhash or sha256)")
}

func (cfg Config) Validate() error {
	if cfg.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.MaxChunks <= 0 {
		return fmt.Errorf("max chunks must be positive, got %d", cfg.MaxChunks)
	}
	if !checksum.IsSupported(cfg.Digest) {
		return fmt.Errorf("unsupported digest %q", cfg.Digest)
	}
	if cfg.Quiet && cfg.Verbose {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	return nil
}
