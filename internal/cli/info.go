package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bopaquin/convert-trace/internal/trs"
)

// newInfoCommand builds "info <file>": decode the capture and print a
// summary without writing any output file.
func newInfoCommand(fs afero.Fs) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "print a summary of a .trs capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := afero.ReadFile(fs, args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			tf, err := trs.Decode(buf, trs.WithMetadata())
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			heading := color.New(color.Bold)
			heading.Fprintln(out, "Header")

			fields := tf.Header.Fields()
			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "  %-22s %v\n", name, fields[name])
			}
			fmt.Fprintf(out, "  %-22s %d\n", "metadata_entries", countLeaves(tf.Metadata))
			fmt.Fprintln(out)

			heading.Fprintln(out, "Traces")
			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"Name", "Format", "Points", "Axis"})
			for i := range tf.Traces {
				t := &tf.Traces[i]
				axis := "shared"
				if t.Axis != nil {
					axis = "explicit"
				}
				table.Append([]string{t.Name, t.Format.String(), strconv.Itoa(t.Points()), axis})
			}
			table.Render()
			return nil
		},
	}
}

// countLeaves counts scalar values in a nested metadata mapping.
func countLeaves(m map[string]any) int {
	n := 0
	for _, v := range m {
		if sub, ok := v.(map[string]any); ok {
			n += countLeaves(sub)
			continue
		}
		n++
	}
	return n
}
