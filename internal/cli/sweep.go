package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/quiet-assistant/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Close modes whose end time has passed",
		Long:  "Close modes whose end time has passed and list the sessions written to history.",
		Run:   runSweep,
	}

	RootCmd.AddCommand(cmd)
}

func runSweep(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	entries := append([]model.HistoryEntry{}, a.swept...)
	entries = append(entries, a.eng.SweepExpired(cmd.Context(), time.Now())...)
	if textOutput() {
		fmt.Printf("%d mode(s) closed\n", len(entries))
		return
	}
	printJSON(entries)
}
