package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the mode state from JSON",
		Long:  "Replace the mode state from JSON (file or stdin). Expects the format produced by export; unreadable records are dropped.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	st, err := a.states.Import(cmd.Context(), data)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"active":%d,"history":%d,"calls":%d}`+"\n",
		len(st.ActiveModes), len(st.ModeHistory), len(st.CallLogs))
}
