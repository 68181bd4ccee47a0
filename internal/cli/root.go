package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/journald"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"remote-apt-dater/internal/adapters"
	"remote-apt-dater/internal/app"
	"remote-apt-dater/internal/types"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "REMOTE_APT_DATER"

type RootConfig struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
}

func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:     "remote-apt-dater",
		Short:   "Watch remote hosts for pending apt upgrades",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log.level"), viper.GetString("log.format"))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	cmd.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", "console", "Log format (console, json, journald)")
	_ = viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", cmd.PersistentFlags().Lookup("log-format"))

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newUpgradeCommand())
	cmd.AddCommand(newUnlockCommand())
	cmd.AddCommand(newHostsCommand())
	return cmd
}

func initConfig(configFile string) error {
	config := newConfigAdapter()
	if configFile != "" {
		return config.ReadFile(configFile)
	}

	path := config.Discover(configSearchPath())
	if path == "" {
		return nil
	}
	return config.ReadFile(path)
}

func newConfigAdapter() *adapters.ConfigFileAdapter {
	return adapters.NewConfigFileAdapter(viper.GetViper(), envPrefix)
}

func configSearchPath() []string {
	dirs := []string{"."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return append(dirs, "~/.config/remote-apt-dater")
}

func loadConfig() (types.Config, error) {
	return newConfigAdapter().Load()
}

func newAppService() (app.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return app.Service{}, err
	}
	return app.NewService(cfg), nil
}

func setupLogging(level string, format string) {
	switch format {
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	case "journald":
		log.Logger = zerolog.New(journald.NewJournalDWriter()).With().Logger()
	default:
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	switch level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func exitCodeForError(err error) int {
	var connErr *types.ConnectionError
	if errors.As(err, &connErr) {
		return 3
	}
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument:
		return 2
	case errbuilder.CodeUnavailable, errbuilder.CodeUnauthenticated:
		return 3
	case errbuilder.CodeFailedPrecondition:
		return 4
	case errbuilder.CodeInternal:
		return 5
	default:
		return 1
	}
}
