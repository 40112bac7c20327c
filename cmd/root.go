package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	noTUI     bool
	debugMode bool
)

// rootCmd represents the base command; running it without a subcommand
// starts the dashboard.
var rootCmd = &cobra.Command{
	Use:   "chainmon",
	Short: "Terminal dashboard for bitcoin and lightning nodes",
	Long: `chainmon is a read-only terminal dashboard that watches your
Bitcoin Core, LND, and Core Lightning nodes: chain height, block feed,
sync progress, and lightning channel metrics, cycling through every
configured node.`,
	// SilenceUsage prevents printing the usage block on errors we handle
	// ourselves (bad config, unreachable nodes).
	SilenceUsage: true,
	RunE:         runMonitor,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command. Called once from main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "chainmon version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ~/.config/chainmon/config.yaml)")
	rootCmd.Flags().BoolVar(&noTUI, "no-tui", false, "log state transitions to stderr instead of rendering the dashboard")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "enable debug logging")
}
