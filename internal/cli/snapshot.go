package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pageflowhq/pageflow/pkg/graph"
	"github.com/pageflowhq/pageflow/pkg/pipeline"
	"github.com/pageflowhq/pageflow/pkg/store"
)

// snapshotCommand creates the snapshot command for persisting results.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and recall computed journey graphs",
		Long: `Save and recall computed journey graphs.

A snapshot freezes a built graph and its layout under a stable ID, so a
visualization can be shared or revisited after the underlying events have
rolled out of retention. Snapshots are stored on disk by default; with a
mongo_uri in the config they go to MongoDB instead.`,
	}

	cmd.AddCommand(c.snapshotSaveCommand())
	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotShowCommand())
	cmd.AddCommand(c.snapshotDeleteCommand())

	return cmd
}

// snapshotSaveCommand creates the "snapshot save" subcommand.
func (c *CLI) snapshotSaveCommand() *cobra.Command {
	var (
		name       string
		layoutPath string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "save [graph.json]",
		Short: "Save a graph (and its layout) as a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshotSave(cmd.Context(), args[0], layoutPath, name, opts)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "snapshot name (default: input file name)")
	cmd.Flags().StringVar(&layoutPath, "layout", "", "layout.json to include (computed fresh if omitted)")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "layout engine when computing fresh")

	return cmd
}

func (c *CLI) runSnapshotSave(ctx context.Context, input, layoutPath, name string, opts pipeline.Options) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	var l graph.Layout
	if layoutPath != "" {
		l, err = graph.ReadLayoutFile(layoutPath)
		if err != nil {
			return fmt.Errorf("load layout %s: %w", layoutPath, err)
		}
	} else {
		c.setCLIDefaults(&opts)
		opts.Logger = c.Logger
		runner, err := c.newRunner(false)
		if err != nil {
			return fmt.Errorf("initialize runner: %w", err)
		}
		defer runner.Close()
		l, err = runner.ComputeLayout(ctx, g, opts)
		if err != nil {
			return fmt.Errorf("compute layout: %w", err)
		}
	}

	if name == "" {
		name = filepath.Base(input)
	}

	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	snap := store.New(name, graph.FromFlow(g), l)
	snap.Threshold = opts.Threshold
	snap.EntryPath = opts.EntryPath
	if err := st.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	printSuccess("Snapshot saved")
	printKeyValue("ID", snap.ID)
	printKeyValue("Name", snap.Name)
	printStats(len(snap.Graph.Nodes), len(snap.Graph.Edges), false)
	printNewline()
	printNextStep("Inspect", "pageflow snapshot show "+snap.ID)

	return nil
}

// snapshotListCommand creates the "snapshot list" subcommand.
func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			snaps, err := st.List(ctx)
			if err != nil {
				return fmt.Errorf("list snapshots: %w", err)
			}
			if len(snaps) == 0 {
				printInfo("No snapshots saved yet")
				return nil
			}

			for _, s := range snaps {
				fmt.Printf("%s  %s  %s\n",
					StyleHighlight.Render(s.ID),
					s.CreatedAt.Format("2006-01-02 15:04"),
					StyleValue.Render(s.Name))
			}
			return nil
		},
	}
}

// snapshotShowCommand creates the "snapshot show" subcommand.
func (c *CLI) snapshotShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show snapshot details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			s, err := st.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get snapshot: %w", err)
			}

			printKeyValue("ID", s.ID)
			printKeyValue("Name", s.Name)
			printKeyValue("Created", s.CreatedAt.Format("2006-01-02 15:04:05"))
			printKeyValue("Pages", fmt.Sprintf("%d", len(s.Graph.Nodes)))
			printKeyValue("Transitions", fmt.Sprintf("%d", len(s.Graph.Edges)))
			printKeyValue("Layout", s.Layout.Mode)
			if s.Threshold > 0 {
				printKeyValue("Threshold", fmt.Sprintf("%d", s.Threshold))
			}
			if s.EntryPath != "" {
				printKeyValue("Entry", s.EntryPath)
			}
			return nil
		},
	}
}

// snapshotDeleteCommand creates the "snapshot delete" subcommand.
func (c *CLI) snapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			if err := st.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("delete snapshot: %w", err)
			}
			printSuccess("Snapshot %s deleted", args[0])
			return nil
		},
	}
}

// newStore picks the snapshot backend: MongoDB when configured, local files
// under ~/.config/pageflow/snapshots otherwise.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	cfg := c.loadConfig()
	if cfg != nil && cfg.Store.MongoURI != "" {
		st, err := store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.Database, cfg.Store.Collection)
		if err != nil {
			return nil, fmt.Errorf("connect snapshot store: %w", err)
		}
		return st, nil
	}

	dir, err := configDir()
	if err != nil {
		return nil, fmt.Errorf("resolve snapshot dir: %w", err)
	}
	st, err := store.NewFileStore(filepath.Join(dir, "snapshots"))
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return st, nil
}
