package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ironsheep/bip-coverart/internal/bip"
	"github.com/ironsheep/bip-coverart/internal/imaging"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the media catalog",
}

var addAlbumCmd = &cobra.Command{
	Use:   "add-album <name> <art-path>",
	Short: "Add an album and print its id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		art, err := filepath.Abs(args[1])
		if err != nil {
			return err
		}
		if !imaging.CanDecode(art) {
			return fmt.Errorf("%s is not a readable image", art)
		}
		return withSession(func(s *session) error {
			id, err := s.catalog.AddAlbum(cmd.Context(), args[0], art)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var addTrackCmd = &cobra.Command{
	Use:   "add-track <title> <album-id>",
	Short: "Add a music track to an album",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid album id %q", args[1])
		}
		return withSession(func(s *session) error {
			return s.catalog.AddTrack(cmd.Context(), args[0], bip.AssetID(id))
		})
	},
}

var listAlbumsCmd = &cobra.Command{
	Use:   "list",
	Short: "List albums and their art",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			albums, err := s.catalog.Albums(cmd.Context())
			if err != nil {
				return err
			}
			for _, a := range albums {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", a.ID, a.Name, a.ArtPath)
			}
			return nil
		})
	},
}

func init() {
	catalogCmd.AddCommand(addAlbumCmd)
	catalogCmd.AddCommand(addTrackCmd)
	catalogCmd.AddCommand(listAlbumsCmd)
}
