package command

import (
	"fmt"
	"os"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sectornet/routing/src/config"
	"github.com/sectornet/routing/src/crypto/keys"
	"github.com/sectornet/routing/src/sectornet"
	vers "github.com/sectornet/routing/src/version"
)

var (
	conf    *config.Config
	datadir *string
	logfile *string
	version *bool
)

func init() {
	conf = config.NewDefaultConfig()

	cobra.OnInitialize(initConfig)

	// Base datadir
	datadir = rootCmd.PersistentFlags().StringP("datadir", "d", conf.DataDir, "Base configuration directory")

	// Listen addresses
	rootCmd.PersistentFlags().StringP("listen", "l", conf.BindAddr, "Listen IP:Port for this node")
	rootCmd.PersistentFlags().StringP("advertise", "a", conf.AdvertiseAddr, "Advertise IP:Port for this node")
	rootCmd.PersistentFlags().StringP("service-listen", "s", conf.ServiceAddr, "HTTP service listen IP:Port")
	rootCmd.PersistentFlags().Bool("no-service", conf.NoService, "Disable the HTTP service")

	// Various
	rootCmd.PersistentFlags().Bool("first", conf.First, "Start a new network instead of joining one")
	rootCmd.PersistentFlags().Bool("store", conf.Store, "Use badgerDB instead of in-mem DB")
	rootCmd.PersistentFlags().String("log", conf.LogLevel, "Log level (debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().String("moniker", conf.Moniker, "Friendly name of this node")
	logfile = rootCmd.PersistentFlags().String("logfile", "", "Also write logs to this file")

	// Node configuration
	rootCmd.PersistentFlags().DurationP("timeout", "t", conf.TCPTimeout, "TCP Timeout")
	rootCmd.PersistentFlags().Int("max-pool", conf.MaxPool, "Connection pool size max")
	rootCmd.PersistentFlags().Int("cache-size", conf.CacheSize, "Number of items in the message dedup cache")
	rootCmd.PersistentFlags().Duration("filter-ttl", conf.FilterTTL, "How long a seen message suppresses duplicates")
	rootCmd.PersistentFlags().Int("elder-size", conf.ElderSize, "Number of elders per section")
	rootCmd.PersistentFlags().Int("section-size", conf.RecommendedSectionSize, "Number of adults a section aims for before splitting")

	// Version
	version = rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version and exit")
}

func initConfig() {
	viper.AddConfigPath(*datadir)
	viper.SetConfigName("sectornet")

	viper.BindPFlags(rootCmd.PersistentFlags())

	if err := viper.ReadInConfig(); err != nil {
		conf.Logger().Warn(err, ". Taking cli or default.")
	}

	if err := viper.Unmarshal(conf); err != nil {
		conf.Logger().Warn(err, ". Taking cli or default.")
	}

	conf.SetDataDir(conf.DataDir)
}

var rootCmd = &cobra.Command{
	Use:   "sectornet",
	Short: "Section-based xor routing node",
	Long:  "Section-based xor routing node",
	Run: func(cmd *cobra.Command, args []string) {
		if *version {
			fmt.Println(vers.Version)

			return
		}

		if *logfile != "" {
			addLogfileHook(*logfile)
		}

		conf.Logger().WithFields(logrus.Fields{
			"datadir":        conf.DataDir,
			"listen":         conf.BindAddr,
			"advertise":      conf.AdvertiseAddr,
			"service-listen": conf.ServiceAddr,
			"no-service":     conf.NoService,
			"first":          conf.First,
			"store":          conf.Store,
			"log":            conf.LogLevel,
			"timeout":        conf.TCPTimeout,
			"max-pool":       conf.MaxPool,
			"cache-size":     conf.CacheSize,
			"filter-ttl":     conf.FilterTTL,
			"elder-size":     conf.ElderSize,
			"section-size":   conf.RecommendedSectionSize,
			"moniker":        conf.Moniker,
		}).Debug("RUN")

		if err := os.MkdirAll(conf.DataDir, 0700); err != nil {
			conf.Logger().Error("Cannot create datadir:", err)

			return
		}

		engine := sectornet.NewSectorNet(conf)

		if err := engine.Init(); err != nil {
			conf.Logger().Error("Cannot initialize engine:", err)

			return
		}

		engine.Run()
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(conf.DataDir, 0700); err != nil {
			return err
		}

		key, err := sectornet.Keygen(conf.Keyfile())
		if err != nil {
			return err
		}

		fmt.Println("Key saved to", conf.Keyfile())
		fmt.Println("PublicKey:", keys.PublicKeyOf(key).Hex())

		return nil
	},
}

// addLogfileHook mirrors all log output to a file, on top of the console.
func addLogfileHook(path string) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		conf.Logger().Warn("Failed to open logfile, using default output:", err)
		return
	}
	f.Close()

	pathMap := lfshook.PathMap{}
	for _, level := range logrus.AllLevels {
		pathMap[level] = path
	}

	conf.Logger().Logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))
}

// Execute runs the root command.
func Execute() {
	rootCmd.AddCommand(keygenCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)

		os.Exit(1)
	}
}
