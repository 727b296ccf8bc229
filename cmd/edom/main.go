package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edom-dev/edom/internal/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "edom",
		Short: "Serve and benchmark edom applications",
		Long: `edom renders immediate-mode UIs and keeps the host tree in sync
with as few mutations as possible.

The serve command runs the demo applications in the browser over a
WebSocket. The bench command replays table scenarios against the
in-memory, remote and no-op backends.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to edom.yaml (default: search the working directory and its parents)")

	load := func() (*config.Config, error) {
		return loadConfig(configPath)
	}
	root.AddCommand(
		serveCmd(load),
		benchCmd(load),
		snapshotCmd(load),
		versionCmd(),
	)
	return root
}

// loadConfig reads path, or the nearest edom.yaml when path is empty.
// Without a file the defaults apply.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	dir, err := config.FindProjectRoot(wd)
	if err != nil {
		return config.New(), nil
	}
	return config.Load(dir)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
