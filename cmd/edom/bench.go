package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/edom-dev/edom/internal/config"
	"github.com/edom-dev/edom/pkg/rows"
)

func benchCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		scenarioPath string
		backend      string
		count        int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a table scenario and report the work done per step",
		Long: `Run a table scenario and report time, host mutations and wire
operations for every step.

Without --scenario the file named by bench.scenario in edom.yaml is used,
or a built-in scenario covering every table operation. The built-in
scenario takes its cloning settings from the engine section of edom.yaml;
scenario files carry their own.

Examples:
  edom bench
  edom bench --backend remote --rows 10000
  edom bench --scenario pkg/rows/testdata/keyed.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if scenarioPath == "" {
				scenarioPath = cfg.Bench.Scenario
			}
			if count == 0 {
				count = cfg.Bench.Rows
			}

			sc, err := benchScenario(scenarioPath, count)
			if err != nil {
				return err
			}
			if scenarioPath == "" {
				sc.ListCloning = &cfg.Engine.ListCloning
				sc.PartialClone = cfg.Engine.PartialClone
			}
			if backend != "" {
				sc.Backend = backend
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := sc.Run(ctx)
			if report != nil {
				if werr := report.Write(cmd.OutOrStdout()); werr != nil && err == nil {
					err = werr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&scenarioPath, "scenario", "f", "", "Scenario file (YAML)")
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "Override the backend: memdom, remote or noop")
	cmd.Flags().IntVarP(&count, "rows", "n", 0, "Row count of the built-in scenario (default from edom.yaml)")

	return cmd
}

// benchScenario loads path, or builds the default scenario for count rows.
func benchScenario(path string, count int) (*rows.Scenario, error) {
	if path != "" {
		return rows.LoadScenario(path)
	}
	picks := max(1, min(10, count))
	return &rows.Scenario{
		Name:  "default",
		Count: count,
		Steps: []rows.Step{
			{Op: "run"},
			{Op: "run", Repeat: 5},
			{Op: "update", Repeat: 5},
			{Op: "swaprows", Repeat: 10},
			{Op: "select", Repeat: picks},
			{Op: "remove", Repeat: picks},
			{Op: "add"},
			{Op: "clear"},
			{Op: "runlots"},
			{Op: "clear"},
		},
	}, nil
}
