package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/ramload/internal/board"
	"github.com/muurk/ramload/internal/config"
	"github.com/muurk/ramload/internal/image"
	"github.com/muurk/ramload/internal/logging"
)

// Persistent flags
var (
	stubHost      string
	stubPort      int
	boardName     string
	configPath    string
	verbose       bool
	logLevel      string
	archSegments  string
	validateFirst bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&stubHost, "host", "localhost", "st-util hostname")
	pf.IntVar(&stubPort, "port", 4242, "st-util port")
	pf.StringVar(&boardName, "board", board.Default, "Board profile (see 'ramload boards')")
	pf.StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/ramload/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Trace every packet exchanged with st-util")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default $"+logging.LogLevelEnvVar+" or silent)")
}

// addImageFlags registers the flags that control image validation.
func addImageFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&archSegments, "arch-segments", "load",
		"Processor-specific segments (e.g. ARM_EXIDX): load or reject")
	cmd.Flags().BoolVar(&validateFirst, "validate-first", false,
		"Validate the whole image before resetting or remapping the target")
}

// settings is the effective configuration of one command run: config file
// values overridden by flags that were set explicitly.
type settings struct {
	host          string
	port          int
	board         *board.Board
	arch          image.ArchPolicy
	validateFirst bool
	logger        *zap.Logger
}

func (s *settings) address() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

func resolveSettings(cmd *cobra.Command) (*settings, error) {
	level := logLevel
	if level == "" && verbose {
		level = "debug"
	}
	if err := logging.Initialize(level); err != nil {
		return nil, err
	}

	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	prefs, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		prefs.Stub.Host = stubHost
	}
	if flags.Changed("port") {
		prefs.Stub.Port = stubPort
	}
	if flags.Changed("board") {
		prefs.Board = boardName
	}
	if f := flags.Lookup("arch-segments"); f != nil && f.Changed {
		prefs.ArchSpecificSegments = archSegments
	}
	if f := flags.Lookup("validate-first"); f != nil && f.Changed {
		prefs.ValidateFirst = validateFirst
	}

	b, err := board.Lookup(prefs.Board)
	if err != nil {
		return nil, err
	}
	arch, err := prefs.ArchPolicy()
	if err != nil {
		return nil, err
	}
	if prefs.Stub.Port <= 0 || prefs.Stub.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", prefs.Stub.Port)
	}

	logger := logging.GetLogger()
	logger.Debug("resolved settings",
		zap.String("config", path),
		zap.String("host", prefs.Stub.Host),
		zap.Int("port", prefs.Stub.Port),
		zap.String("board", b.Name),
		zap.Stringer("arch_segments", arch),
		zap.Bool("validate_first", prefs.ValidateFirst),
	)

	return &settings{
		host:          prefs.Stub.Host,
		port:          prefs.Stub.Port,
		board:         b,
		arch:          arch,
		validateFirst: prefs.ValidateFirst,
		logger:        logger,
	}, nil
}
