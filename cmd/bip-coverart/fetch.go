package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var propertiesCmd = &cobra.Command{
	Use:   "properties <title>",
	Short: "Print the image-properties document for a track's cover art",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			h, err := s.resp.HandleForTitle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc, err := s.resp.EncodeProperties(cmd.Context(), h)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(doc, '\n'))
			return err
		})
	},
}

var (
	fetchDescriptor string
	fetchOut        string
	fetchThumbnail  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <title>",
	Short: "Render a track's cover art",
	Long: "Render a track's cover art as negotiated by an image-descriptor\n" +
		"document, or the fixed thumbnail with --thumbnail.",
	Example: "  bip-coverart fetch \"Blue in Green\" --descriptor want.xml --out cover.jpg",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var doc []byte
		if fetchDescriptor != "" {
			if fetchThumbnail {
				return fmt.Errorf("--descriptor and --thumbnail are mutually exclusive")
			}
			data, err := os.ReadFile(fetchDescriptor)
			if err != nil {
				return fmt.Errorf("failed to read descriptor: %w", err)
			}
			doc = data
		}

		return withSession(func(s *session) error {
			h, err := s.resp.HandleForTitle(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			toFile := fetchOut != "" && fetchOut != "-"
			if toFile {
				f, err := os.Create(fetchOut)
				if err != nil {
					return fmt.Errorf("failed to create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			if fetchThumbnail {
				err = s.resp.FetchThumbnail(cmd.Context(), h, out)
			} else {
				err = s.resp.FetchImage(cmd.Context(), h, doc, out)
			}
			if err != nil && toFile {
				os.Remove(fetchOut)
			}
			return err
		})
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchDescriptor, "descriptor", "", "image-descriptor XML file (default: native size as JPEG)")
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "-", "output file, - for stdout")
	fetchCmd.Flags().BoolVar(&fetchThumbnail, "thumbnail", false, "render the fixed-size thumbnail")
}
