/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
	"github.com/ssargent/gatewire/pkg/etf"
)

func newDecodeCmd() *cobra.Command {
	decodeCmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode an ETF buffer into JSON",
		Long: `Decode an ETF buffer and print the term as JSON. Input is read from the
file argument or stdin. COMPRESSED terms are inflated within the configured
codec limits.

Examples:
  gatewire decode frame.etf
  echo 836a | gatewire decode --hex --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			asHex, _ := cmd.Flags().GetBool("hex")
			wantMap, _ := cmd.Flags().GetBool("map")
			wantList, _ := cmd.Flags().GetBool("list")
			pretty, _ := cmd.Flags().GetBool("pretty")

			if wantMap && wantList {
				return errors.New("--map and --list are mutually exclusive")
			}

			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if asHex {
				if input, err = decodeHex(input); err != nil {
					return err
				}
			}

			decoder := etf.NewDecoder(a.cfg.Codec.Limits())
			var term etf.Term
			switch {
			case wantMap:
				var m *etf.Map
				m, err = decoder.UnpackMap(input)
				term = m
			case wantList:
				term, err = decoder.UnpackList(input)
			default:
				term, err = decoder.Unpack(input)
			}
			if err != nil {
				return err
			}

			doc, err := etf.ToJSON(term)
			if err != nil {
				return err
			}
			if pretty {
				var buf bytes.Buffer
				if err := json.Indent(&buf, doc, "", "  "); err != nil {
					return err
				}
				doc = buf.Bytes()
			}
			_, err = cmd.OutOrStdout().Write(append(doc, '\n'))
			return err
		},
	}

	decodeCmd.Flags().Bool("hex", false, "Input is hex text")
	decodeCmd.Flags().Bool("map", false, "Require the outer term to be a map")
	decodeCmd.Flags().Bool("list", false, "Require the outer term to be a list")
	decodeCmd.Flags().Bool("pretty", false, "Indent the JSON output")
	return decodeCmd
}
