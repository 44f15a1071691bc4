// Package config resolves the driver's CLI flags and MANIFEST_* overlay
// environment variables into a single Config value, per §6's CLI
// surface contract. Flags take precedence when both are set.
package config

import (
	"flag"
	"fmt"
	"os"
)

const (
	// DefaultDepth is the default maximum call-tree depth.
	DefaultDepth = 15
	// DefaultOutDir is the default output directory.
	DefaultOutDir = "."
	// DefaultLogLevel is the default zerolog level name.
	DefaultLogLevel = "info"
)

// Config is the fully resolved set of driver inputs.
type Config struct {
	BinaryPath     string
	Depth          int
	SyscallTable   string
	Lang           string
	OutDir         string
	CheckIntegrity bool
	LogLevel       string
	StrictDecode   bool
}

// Parse parses args (normally os.Args[1:]) and layers in MANIFEST_*
// environment variables for the -syscall-table, -out, -check-integrity
// and -log-level flags when left at their default value; -depth, -lang
// and -strict-decode have no environment overlay.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("manifest-producer", flag.ContinueOnError)

	depth := fs.Int("depth", DefaultDepth, "maximum call-tree depth")
	syscallTable := fs.String("syscall-table", "", "path to the syscall descriptor table")
	lang := fs.String("lang", "", "override the detected producer language")
	outDir := fs.String("out", DefaultOutDir, "output directory")
	checkIntegrity := fs.Bool("check-integrity", false, "run the integrity/hardening checker")
	logLevel := fs.String("log-level", DefaultLogLevel, "log level (debug|info|warn|error)")
	strictDecode := fs.Bool("strict-decode", false, "treat a per-function decode error as fatal")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() != 1 {
		return Config{}, fmt.Errorf("expected exactly one positional argument (path to ELF file), got %d", fs.NArg())
	}

	cfg := Config{
		BinaryPath:     fs.Arg(0),
		Depth:          *depth,
		SyscallTable:   *syscallTable,
		Lang:           *lang,
		OutDir:         *outDir,
		CheckIntegrity: *checkIntegrity,
		LogLevel:       *logLevel,
		StrictDecode:   *strictDecode,
	}
	applyEnvOverlay(&cfg)
	return cfg, nil
}

func applyEnvOverlay(cfg *Config) {
	if cfg.SyscallTable == "" {
		if v := os.Getenv("MANIFEST_SYSCALL_TABLE"); v != "" {
			cfg.SyscallTable = v
		}
	}
	if cfg.OutDir == DefaultOutDir {
		if v := os.Getenv("MANIFEST_OUT"); v != "" {
			cfg.OutDir = v
		}
	}
	if !cfg.CheckIntegrity && os.Getenv("MANIFEST_CHECK_INTEGRITY") == "1" {
		cfg.CheckIntegrity = true
	}
	if cfg.LogLevel == DefaultLogLevel {
		if v := os.Getenv("MANIFEST_LOG_LEVEL"); v != "" {
			cfg.LogLevel = v
		}
	}
}
