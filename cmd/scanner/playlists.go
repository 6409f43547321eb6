package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"playlistscanner/internal/app"
	"playlistscanner/internal/domain/playlist"
	"playlistscanner/internal/model"
)

func newPlaylistsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlists",
		Short: "Manage tracked playlists",
	}
	cmd.AddCommand(newPlaylistsAddCmd(), newPlaylistsListCmd(), newPlaylistsRemoveCmd())
	return cmd
}

// withRegistry выполняет fn с реестром плейлистов без подключения к провайдерам
func withRegistry(cmd *cobra.Command, fn func(ctx context.Context, registry *playlist.Registry) error) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	return fn(ctx, app.NewComponentFactory(cfg, log).CreateRegistry())
}

func newPlaylistsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <url> [name]",
		Short: "Register a playlist by its catalog or share link",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			return withRegistry(cmd, func(ctx context.Context, registry *playlist.Registry) error {
				ref, err := registry.Add(ctx, args[0], name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s playlist %s (%s)\n", ref.Provider.DisplayName(), ref.Name, ref.ID)
				return nil
			})
		},
	}
}

func newPlaylistsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked playlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRegistry(cmd, func(_ context.Context, registry *playlist.Registry) error {
				refs, err := registry.Refs()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PROVIDER\tID\tNAME\tURL")
				for _, ref := range refs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ref.Provider, ref.ID, ref.Name, ref.URL())
				}
				return tw.Flush()
			})
		},
	}
}

func newPlaylistsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <provider> <id>",
		Short: "Stop tracking a playlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, ok := model.ParseProvider(args[0])
			if !ok {
				return fmt.Errorf("unknown provider %q, expected spotify or deezer", args[0])
			}
			return withRegistry(cmd, func(_ context.Context, registry *playlist.Registry) error {
				if err := registry.Remove(provider, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s playlist %s\n", provider, args[1])
				return nil
			})
		},
	}
}
