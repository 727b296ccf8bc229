package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/edom-dev/edom/internal/config"
	"github.com/edom-dev/edom/internal/errors"
	"github.com/edom-dev/edom/pkg/snapshot"
)

func snapshotCmd(load func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot <command>",
		Short: "Manage stored session snapshots",
		Long: `Read, delete and expire the session snapshots written by a running
server. The store is the one configured under snapshot: in edom.yaml.`,
	}

	open := func(cmd *cobra.Command) (snapshot.Store, *config.Config, error) {
		cfg, err := load()
		if err != nil {
			return nil, nil, err
		}
		store, err := cfg.OpenSnapshots(cmd.Context())
		if err != nil {
			return nil, nil, err
		}
		if store == nil {
			return nil, nil, errors.New("E162").
				WithDetail("snapshot.driver is not set").
				WithSuggestion("Set snapshot.driver to disk or s3 in edom.yaml")
		}
		return store, cfg, nil
	}

	cmd.AddCommand(
		snapshotGetCmd(open),
		snapshotDeleteCmd(open),
		snapshotCleanupCmd(open),
	)
	return cmd
}

type openStore func(cmd *cobra.Command) (snapshot.Store, *config.Config, error)

func snapshotGetCmd(open openStore) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a snapshot's markup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := open(cmd)
			if err != nil {
				return err
			}
			snap, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(snap.HTML)
				return err
			}
			if err := os.WriteFile(output, snap.HTML, 0o644); err != nil {
				return err
			}
			success("Snapshot of session %s (%s) written to %s",
				snap.SessionID, snap.CreatedAt.Format(time.RFC3339), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func snapshotDeleteCmd(open openStore) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := open(cmd)
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := store.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
			}
			success("Deleted %d snapshot(s)", len(args))
			return nil
		},
	}
}

func snapshotCleanupCmd(open openStore) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired snapshots",
		Long: `Remove snapshots older than --max-age, or snapshot.max_age from
edom.yaml when the flag is not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := open(cmd)
			if err != nil {
				return err
			}
			if maxAge == 0 {
				maxAge = cfg.Snapshot.MaxAge
			}
			if maxAge <= 0 {
				return errors.New("E162").WithDetail("cleanup needs a positive --max-age or snapshot.max_age")
			}
			n, err := store.Cleanup(cmd.Context(), maxAge)
			if err != nil {
				return err
			}
			success("Removed %d snapshot(s) older than %s", n, maxAge)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Maximum snapshot age")

	return cmd
}
