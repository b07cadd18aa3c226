package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/srg/senspoll/internal/central"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <kind> <hex>",
		Short: "Decode one characteristic payload",
		Long: `Decodes a raw characteristic value offline, the same way polled reads are
decoded. Kinds: temperature, humidity, pressure, red, green, blue.
Payload bytes are little-endian hex; spaces, colons and a 0x prefix are ignored.`,
		Example: `  senspoll decode temperature e809
  senspoll decode pressure "0x 94 27 00 00"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := central.ParseKind(args[0])
			if err != nil {
				return err
			}
			data, err := parseHexPayload(args[1])
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			value, err := central.Decode(kind, data)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", kind, FormatValue(kind, value))
			return err
		},
	}
}

func parseHexPayload(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(s)
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPayload)
	}
	return data, nil
}
