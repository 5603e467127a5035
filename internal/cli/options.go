// Package cli: options.go implements the "frontend-scaffold options" command,
// which prints the option catalog.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/frontend-scaffold/internal/catalog"
)

// axisJSON is the JSON output structure for one catalog axis.
type axisJSON struct {
	Axis    string   `json:"axis"`
	Values  []string `json:"values"`
	Default string   `json:"default"`
}

// NewOptionsCommand creates the "options" cobra command.
func NewOptionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the accepted configuration values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printOptions(cmd.OutOrStdout(), catalog.Default())
		},
	}
}

func printOptions(w io.Writer, cat *catalog.Catalog) error {
	axes := make([]axisJSON, 0, len(cat.Axes()))
	for _, axis := range cat.Axes() {
		values, err := cat.AllValues(axis)
		if err != nil {
			return err
		}
		axes = append(axes, axisJSON{Axis: axis.String(), Values: values, Default: cat.Default(axis)})
	}

	if IsJSONOutput() {
		return writeStructured(w, formatJSON, struct {
			Axes []axisJSON `json:"axes"`
		}{axes})
	}
	for _, a := range axes {
		fmt.Fprintf(w, "%-20s %s (default: %s)\n", a.Axis, formatList(a.Values), a.Default)
	}
	return nil
}
