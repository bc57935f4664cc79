package main

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"dendron/internal/storage"
)

const (
	configBaseName   = "dendron"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	storeFlagName      = "store"
	dbFlagName         = "db"
	benchmarksFlagName = "benchmarks-dir"
	exportsFlagName    = "exports-dir"
	verboseFlagName    = "verbose"
	logFileFlagName    = "log-file"

	defaultDBPath        = "dendron.db"
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultLogFilename   = ".dendron.log"

	envPrefix = "DENDRON"

	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"

	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
)

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(storeFlagName, storage.DefaultStoreKind())
	viper.SetDefault(dbFlagName, defaultDBPath)
	viper.SetDefault(benchmarksFlagName, defaultBenchmarksDir)
	viper.SetDefault(exportsFlagName, defaultExportsDir)
	viper.SetDefault(verboseFlagName, false)
	viper.SetDefault(logFileFlagName, defaultLogFilename)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

// configureLogger points the global slog logger at a rotating log file.
// Verbose drops the level to Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFileFlagName)
	}
	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}
