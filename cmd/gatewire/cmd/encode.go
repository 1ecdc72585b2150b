/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/hex"
	"time"

	"github.com/spf13/cobra"
	"github.com/ssargent/gatewire/pkg/etf"
)

func newEncodeCmd() *cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode a JSON document as ETF",
		Long: `Encode a JSON document as an ETF buffer. Input is read from the file
argument or stdin; the encoded bytes go to stdout.

Numbers without a fraction or exponent become integers, object keys keep their
order, and null becomes the atom nil.

Examples:
  echo '{"op":1,"d":251}' | gatewire encode --hex
  gatewire encode identify.json --compress > identify.etf`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			compress, _ := cmd.Flags().GetBool("compress")
			asHex, _ := cmd.Flags().GetBool("hex")

			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			term, err := etf.FromJSON(input)
			if err != nil {
				return err
			}

			start := time.Now()
			var encoded []byte
			if compress {
				encoded, err = etf.PackCompressed(term, a.cfg.Codec.CompressionLevel)
			} else {
				encoded, err = a.cfg.Codec.Encoder().Pack(term)
			}
			if err != nil {
				return err
			}
			a.logger.Debug().
				Int("json_bytes", len(input)).
				Int("etf_bytes", len(encoded)).
				Dur("took", time.Since(start)).
				Msg("encoded")

			out := cmd.OutOrStdout()
			if asHex {
				_, err = out.Write([]byte(hex.EncodeToString(encoded) + "\n"))
				return err
			}
			_, err = out.Write(encoded)
			return err
		},
	}

	encodeCmd.Flags().Bool("compress", false, "Wrap the output in a COMPRESSED term")
	encodeCmd.Flags().Bool("hex", false, "Write hex text instead of raw bytes")
	return encodeCmd
}
