/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	max3100 "github.com/allbin/go-max3100"
	"github.com/allbin/go-max3100/internal/sim"
	"github.com/allbin/go-max3100/periphspi"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var cfgFile string

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "max3100",
	Short: "Talk to a MAX3100 UART over SPI",
	Long: `max3100 drives a MAX3100 SPI UART from the command line.

The chip is addressed by SPI bus and chip select, /dev/spidev<bus>.<device>
with the default spidev driver. Every command accepts the line settings as
flags, as MAX3100_* environment variables or from a config file.

Example usage:
  max3100 send "AT" --newline
  max3100 read --length 4 --timeout 2s
  max3100 connect --bus 1 --device 0 --baud 115200
  max3100 bauds --crystal 1 --table`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(viper.GetString("log-file"), viper.GetBool("debug")))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.max3100.yaml)")
	flags.IntP("bus", "B", 0, "SPI bus number")
	flags.IntP("device", "d", 0, "SPI chip select")
	flags.Int("crystal", int(max3100.X2), "Crystal: 1 for 1.8432MHz, 2 for 3.6864MHz")
	flags.IntP("baud", "b", max3100.DefaultBaudRate, "Baud rate")
	flags.Uint32("spi-speed", max3100.DefaultMaxSpeedHz, "SPI clock limit in Hz")
	flags.Int("max-misses", max3100.DefaultMaxMisses, "Empty polls that end a receive pump")
	flags.Int("buffer-size", max3100.DefaultBufferSize, "Receive ring capacity in bytes")
	flags.String("driver", "spidev", "Bus driver: spidev, periph, sim")
	flags.String("log-file", "", "Write JSON logs to a rotating file instead of stderr")
	flags.Bool("debug", false, "Enable debug logging, including every bus exchange")

	cobra.CheckErr(viper.BindPFlags(flags))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".max3100")
	}

	viper.SetEnvPrefix("max3100")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		os.Exit(1)
	}
}

// newLogger logs text to stderr, or JSON to a rotating file when path is set.
func newLogger(path string, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if path != "" {
		var w io.Writer = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10,
			MaxBackups: 3,
			Compress:   true,
		}
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func driverOpener(name string) (max3100.Opener, error) {
	switch strings.ToLower(name) {
	case "spidev", "":
		return max3100.SpidevOpener, nil
	case "periph":
		return periphspi.Opener, nil
	case "sim":
		return sim.Opener(sim.WithLoopback()), nil
	default:
		return nil, fmt.Errorf("unknown driver %q (want spidev, periph or sim)", name)
	}
}

// deviceOptions turns the bound flags into driver options.
func deviceOptions() ([]max3100.Option, error) {
	opener, err := driverOpener(viper.GetString("driver"))
	if err != nil {
		return nil, err
	}
	return []max3100.Option{
		max3100.WithCrystal(max3100.Crystal(viper.GetInt("crystal"))),
		max3100.WithBaudRate(viper.GetInt("baud")),
		max3100.WithMaxSpeedHz(viper.GetUint32("spi-speed")),
		max3100.WithMaxMisses(viper.GetInt("max-misses")),
		max3100.WithBufferSize(viper.GetInt("buffer-size")),
		max3100.WithLogger(slog.Default()),
		max3100.WithOpener(opener),
	}, nil
}

func openDevice() (*max3100.Device, error) {
	opts, err := deviceOptions()
	if err != nil {
		return nil, err
	}
	return max3100.Open(viper.GetInt("bus"), viper.GetInt("device"), opts...)
}

func devicePath() string {
	return fmt.Sprintf("spi%d.%d", viper.GetInt("bus"), viper.GetInt("device"))
}

// mustOpen opens the configured device or exits with a styled error.
func mustOpen() *max3100.Device {
	dev, err := openDevice()
	if err != nil {
		fail(err)
	}
	return dev
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("✗"), err)
	os.Exit(1)
}
