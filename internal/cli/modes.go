package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/quiet-assistant/internal/catalog"
)

func init() {
	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List the available mode types",
		Run:   runModes,
	}

	RootCmd.AddCommand(cmd)
}

func runModes(cmd *cobra.Command, args []string) {
	defs := catalog.All()
	if !textOutput() {
		printJSON(defs)
		return
	}
	fmt.Println(headerStyle.Render("Modes"))
	for _, d := range defs {
		fmt.Printf("%-8s %-16s %3d min  %s\n", d.Type, d.Name, d.DefaultDurationMinutes, labelStyle.Render(d.DefaultMessage))
	}
}
