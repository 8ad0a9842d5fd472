package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time.
var Version = "dev"

// Flags carries the command-line overrides applied on top of the
// loaded configuration.
type Flags struct {
	Path         string
	Number       string
	ConfigFile   string
	Output       string
	LocationRule string
	NamingRule   string
	Mode         int
	LinkMode     int
	Concurrent   int
	Debug        bool
	ScanOnly     bool
	Serve        bool
}

// Run is the processing entry point wired by package main.
var Run func(cfg *Config, flags Flags) error

var flags Flags

var rootCmd = &cobra.Command{
	Use:   "mdc [PATH]",
	Short: "Scrape movie metadata and organize a video library",
	Long: `mdc scans a folder of video files, derives each file's movie ID,
fetches metadata from ranked web sources, and places the file together
with an NFO sidecar and poster into a template-driven library layout.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("mdc %s\n", Version)
			return nil
		}
		cfg, err := Load(flags.ConfigFile)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			flags.Path = args[0]
			if _, err := os.Stat(flags.Path); err != nil {
				return fmt.Errorf("path does not exist: %s", flags.Path)
			}
			cfg.Common.SourceFolder = flags.Path
		}
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		if Run == nil {
			return fmt.Errorf("no processing function registered")
		}
		return Run(cfg, flags)
	},
}

// applyFlags copies explicitly-set flags over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *Config) {
	if cmd.Flags().Changed("mode") {
		cfg.Common.MainMode = flags.Mode
	}
	if cmd.Flags().Changed("link-mode") {
		cfg.Common.LinkMode = flags.LinkMode
	}
	if cmd.Flags().Changed("concurrent") {
		cfg.Common.MultiThreading = flags.Concurrent
	}
	if flags.Output != "" {
		cfg.Common.SuccessOutputFolder = flags.Output
	}
	if flags.LocationRule != "" {
		cfg.NameRule.LocationRule = flags.LocationRule
	}
	if flags.NamingRule != "" {
		cfg.NameRule.NamingRule = flags.NamingRule
	}
	if flags.Debug {
		cfg.DebugMode.Switch = true
	}
}

func init() {
	rootCmd.Flags().StringVarP(&flags.Number, "number", "n", "", "override the detected movie ID")
	rootCmd.Flags().IntVarP(&flags.Mode, "mode", "m", ModeScraping, "main mode: 1=scraping, 2=organizing, 3=analysis")
	rootCmd.Flags().StringVarP(&flags.ConfigFile, "config", "C", "", "config file path")
	rootCmd.Flags().BoolVarP(&flags.Debug, "debug", "g", false, "enable debug output")
	rootCmd.Flags().StringVarP(&flags.Output, "output", "o", "", "destination root folder")
	rootCmd.Flags().StringVar(&flags.LocationRule, "location-rule", "", "destination folder template")
	rootCmd.Flags().StringVar(&flags.NamingRule, "naming-rule", "", "destination filename template")
	rootCmd.Flags().IntVarP(&flags.LinkMode, "link-mode", "l", LinkMove, "link mode: 0=move, 1=soft link, 2=hard link")
	rootCmd.Flags().IntVarP(&flags.Concurrent, "concurrent", "j", 4, "maximum concurrent files")
	rootCmd.Flags().BoolVarP(&flags.ScanOnly, "scan", "s", false, "scan and list candidate files, then exit")
	rootCmd.Flags().BoolVar(&flags.Serve, "serve", false, "run the HTTP/WebSocket job server instead of a batch")
	rootCmd.Flags().BoolP("version", "v", false, "print version and exit")
}

// Execute runs the CLI. Exit code 1 covers invalid arguments and
// missing paths.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
