package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"chainmon/internal/config"
	"chainmon/internal/fees"
	"chainmon/internal/headless"
	"chainmon/internal/node/providers"
	"chainmon/internal/price"
	"chainmon/internal/supervisor"
	"chainmon/internal/tui"
	"chainmon/pkg/logging"
)

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if noTUI {
		return runHeadless(&cfg)
	}
	return runDashboard(&cfg)
}

func logLevel() logging.LogLevel {
	if debugMode {
		return logging.LevelDebug
	}
	return logging.LevelInfo
}

func runDashboard(cfg *config.Config) error {
	logCh := logging.InitForTUI(logLevel())

	program := tea.NewProgram(
		tui.NewModel(cfg, logCh),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	sup := supervisor.New(context.Background())
	err := startTasks(cfg, sup, tui.NewSender(program),
		func(q price.Quote) { program.Send(tui.PriceMsg(q)) },
		func(r fees.Recommended) { program.Send(tui.FeesMsg(r)) },
	)
	if err != nil {
		sup.Shutdown()
		return err
	}

	_, runErr := program.Run()

	// Quit is not an error: stop spawning, cancel every task, and wait for
	// them all to drain before tearing down the log channel they write to.
	sup.Shutdown()
	logging.CloseTUIChannel()
	return runErr
}

func runHeadless(cfg *config.Config) error {
	logging.InitForCLI(logLevel(), os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := supervisor.New(ctx)
	reporter := headless.NewReporter(cfg)
	err := startTasks(cfg, sup, reporter,
		func(q price.Quote) { logging.Info("price", "BTC %s %.2f", q.Currency, q.Amount) },
		func(r fees.Recommended) { logging.Info("fees", "recommended %.0f/%.0f/%.0f sat/vB", r.Fastest, r.HalfHour, r.Hour) },
	)
	if err != nil {
		sup.Shutdown()
		return err
	}

	logging.Info("chainmon", "monitoring %d node(s), press Ctrl-C to stop", len(cfg.Nodes))
	<-ctx.Done()
	sup.Shutdown()
	return nil
}

// startTasks spawns one provider per configured node plus the optional
// price and fees pollers.
func startTasks(cfg *config.Config, sup *supervisor.Supervisor, sink providers.Sink,
	priceSink price.Sink, feesSink fees.Sink) error {

	for i, nodeCfg := range cfg.Nodes {
		p, err := providers.ForNode(i, nodeCfg, sup)
		if err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
		sup.Spawn("node-"+p.Name(), func(ctx context.Context) error {
			return p.Run(ctx, sink)
		})
	}

	if cfg.Price.IsEnabled() {
		poller := price.New(cfg.Price.Currency, priceSink)
		sup.Spawn("price", poller.Run)
	}
	if cfg.Fees.IsEnabled() {
		poller := fees.New(cfg.Fees.Endpoint, feesSink)
		sup.Spawn("fees", poller.Run)
	}
	return nil
}
