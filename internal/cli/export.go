package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the mode state as JSON",
		Long:  "Export active modes, history and call log as one JSON document, the same shape that is stored.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	b, err := a.states.Export(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}
	fmt.Println(string(b))
}
