package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/quiet-assistant/internal/engine"
	"github.com/rcliao/quiet-assistant/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics",
		Run:   runStats,
	}

	cmd.Flags().Bool("storage", false, "Include database statistics")

	RootCmd.AddCommand(cmd)
}

type statsOutput struct {
	engine.Stats
	Storage *store.Info `json:"storage,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) {
	withStorage, _ := cmd.Flags().GetBool("storage")

	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	out := statsOutput{Stats: a.eng.Stats()}
	if withStorage {
		info, err := a.kv.Info(cmd.Context(), getDBPath())
		if err != nil {
			exitErr("stats", err)
		}
		out.Storage = info
	}

	if textOutput() {
		fmt.Println(renderStats(out.Stats))
		if out.Storage != nil {
			fmt.Println(headerStyle.Render("Storage"))
			fmt.Printf("%s %s\n", labelStyle.Render(out.Storage.DBPath), humanize.Bytes(uint64(out.Storage.DBSizeBytes)))
			for _, k := range out.Storage.Keys {
				fmt.Printf("%-14s %s\n", k.Key, humanize.Bytes(uint64(k.Bytes)))
			}
		}
		return
	}
	printJSON(out)
}
