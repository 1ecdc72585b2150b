/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
	"github.com/ssargent/gatewire/pkg/capture"
	"github.com/ssargent/gatewire/pkg/etf"
)

// captureDir is where the capture store lives under the data directory.
func captureDir(dataDir string) string {
	return filepath.Join(dataDir, "captures")
}

func openCaptureStore(a *app) (*capture.Store, error) {
	if container == nil {
		return nil, errors.New("dependency container not initialized")
	}
	store, err := container.GetStoreOpener().OpenStore(captureDir(a.cfg.DataDir), capture.Options{
		Decoder: etf.NewDecoder(a.cfg.Codec.Limits()),
		Logger:  a.logger,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// withStore opens the capture store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(a *app, store *capture.Store) error) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	store, err := openCaptureStore(a)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(a, store)
}

func newCaptureCmd() *cobra.Command {
	captureCmd := &cobra.Command{
		Use:   "capture",
		Short: "Manage captured gateway frames",
		Long: `Store, inspect and remove raw ETF frames in the local capture store.

Frames are kept in <data-dir>/captures, ordered by capture time.`,
	}

	captureCmd.AddCommand(
		newCaptureAddCmd(),
		newCaptureGetCmd(),
		newCaptureListCmd(),
		newCaptureRmCmd(),
	)
	return captureCmd
}

func newCaptureAddCmd() *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add [file]",
		Short: "Capture an ETF frame",
		Long: `Capture an ETF frame read from the file argument or stdin. The frame must
decode cleanly.

Example:
  gatewire capture add --direction inbound frame.etf`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directionFlag, _ := cmd.Flags().GetString("direction")
			asHex, _ := cmd.Flags().GetBool("hex")

			direction, err := capture.ParseDirection(directionFlag)
			if err != nil {
				return err
			}
			if direction == capture.DirectionAny {
				return errors.New("--direction must be inbound or outbound")
			}

			payload, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if asHex {
				if payload, err = decodeHex(payload); err != nil {
					return err
				}
			}

			return withStore(cmd, func(a *app, store *capture.Store) error {
				frame, err := store.Append(direction, payload)
				if err != nil {
					return err
				}
				cmd.Println(frame.ID.String())
				return nil
			})
		},
	}

	addCmd.Flags().String("direction", "inbound", "Frame direction (inbound or outbound)")
	addCmd.Flags().Bool("hex", false, "Input is hex text")
	return addCmd
}

func newCaptureGetCmd() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a captured frame as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetBool("raw")

			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid frame ID %q: %w", args[0], err)
			}

			return withStore(cmd, func(a *app, store *capture.Store) error {
				frame, err := store.Get(id)
				if err != nil {
					return err
				}
				if raw {
					_, err = cmd.OutOrStdout().Write(frame.Payload)
					return err
				}

				term, err := etf.NewDecoder(a.cfg.Codec.Limits()).Unpack(frame.Payload)
				if err != nil {
					return err
				}
				doc, err := etf.ToJSON(term)
				if err != nil {
					return err
				}
				cmd.Printf("%s %s %s %d bytes\n", frame.ID, frame.Direction, frame.Timestamp.UTC().Format(time.RFC3339Nano), len(frame.Payload))
				cmd.Println(string(doc))
				return nil
			})
		},
	}

	getCmd.Flags().Bool("raw", false, "Write the raw ETF payload instead of JSON")
	return getCmd
}

func newCaptureListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List captured frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			directionFlag, _ := cmd.Flags().GetString("direction")
			afterFlag, _ := cmd.Flags().GetString("after")

			opts := capture.ListOptions{Limit: limit}
			direction, err := capture.ParseDirection(directionFlag)
			if err != nil {
				return err
			}
			opts.Direction = direction
			if afterFlag != "" {
				if opts.After, err = ksuid.Parse(afterFlag); err != nil {
					return fmt.Errorf("invalid --after cursor: %w", err)
				}
			}

			return withStore(cmd, func(a *app, store *capture.Store) error {
				frames, err := store.List(opts)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tDIRECTION\tCAPTURED\tBYTES")
				for _, frame := range frames {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
						frame.ID, frame.Direction, frame.Timestamp.UTC().Format(time.RFC3339), len(frame.Payload))
				}
				return w.Flush()
			})
		},
	}

	listCmd.Flags().Int("limit", 50, "Maximum number of frames to list (0 for all)")
	listCmd.Flags().String("direction", "any", "Only list frames in this direction")
	listCmd.Flags().String("after", "", "Start after this frame ID")
	return listCmd
}

func newCaptureRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Remove a captured frame",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid frame ID %q: %w", args[0], err)
			}

			return withStore(cmd, func(a *app, store *capture.Store) error {
				if err := store.Delete(id); err != nil {
					return err
				}
				cmd.Printf("Removed frame %s\n", id)
				return nil
			})
		},
	}
}
