package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/smazurov/doorlight/internal/led"
	"github.com/spf13/cobra"
)

// CreatePinsCmd creates the pins command.
func CreatePinsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "pins",
		Short: "List GPIO pins known to the host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pins, err := led.ListPins()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(pins)
			}
			return writePinTable(cmd.OutOrStdout(), pins)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func writePinTable(w io.Writer, pins []led.PinInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tNUMBER\tLEVEL")
	for _, p := range pins {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Name, p.Number, p.Level)
	}
	return tw.Flush()
}
