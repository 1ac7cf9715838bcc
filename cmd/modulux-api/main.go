package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/MarcoPoloResearchLab/modulux/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultEnvFile = ".env"

var (
	cfgFile string
	envFile string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "modulux-api",
		Short:         "Modulux portfolio builder backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(newServeCommand(), newSessionCommand(), newPortfoliosCommand(), newSectionsCommand())
	return rootCmd
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to configuration file")
	flags.StringVar(&envFile, "env-file", defaultEnvFile, "Path to a dotenv file loaded before configuration")
	flags.String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	flags.StringSlice("cors-allowed-origins", nil, "Origins allowed to call the API with credentials")
	flags.String("database-driver", defaults.GetString("database.driver"), "Portfolio store (sqlite, mongo)")
	flags.String("database-path", defaults.GetString("database.path"), "SQLite database path")
	flags.String("mongo-uri", defaults.GetString("mongo.uri"), "MongoDB connection URI")
	flags.String("cache-driver", defaults.GetString("cache.driver"), "Published portfolio cache (memory, redis, none)")
	flags.String("redis-address", defaults.GetString("redis.address"), "Redis address for the redis cache")
	flags.String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	flags.String("signing-secret", "", "Session signing secret (overrides env)")
	flags.String("api-base-url", defaults.GetString("api.base_url"), "Base URL of a running API for client commands")
	flags.String("api-token", "", "Session token for client commands")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "cors.allowed_origins", "cors-allowed-origins")
	bindFlag(cmd, "database.driver", "database-driver")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "mongo.uri", "mongo-uri")
	bindFlag(cmd, "cache.driver", "cache-driver")
	bindFlag(cmd, "redis.address", "redis-address")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "tauth.signing_secret", "signing-secret")
	bindFlag(cmd, "api.base_url", "api-base-url")
	bindFlag(cmd, "api.token", "api-token")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// initConfig loads the dotenv file into the process environment, then the optional config file.
// A missing default .env is not an error; a missing explicit one is.
func initConfig() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !(envFile == defaultEnvFile && errors.Is(err, fs.ErrNotExist)) {
				return err
			}
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("modulux")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}
