package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/quiet-assistant/internal/catalog"
	"github.com/rcliao/quiet-assistant/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "deactivate [id]",
		Short: "Deactivate one mode, a mode type, or all modes",
		Args:  cobra.MaximumNArgs(1),
		Run:   runDeactivate,
	}

	cmd.Flags().Bool("all", false, "Deactivate every active mode")
	cmd.Flags().StringP("type", "t", "", "Deactivate the active mode of this type")

	RootCmd.AddCommand(cmd)
}

func runDeactivate(cmd *cobra.Command, args []string) {
	all, _ := cmd.Flags().GetBool("all")
	typ, _ := cmd.Flags().GetString("type")

	set := 0
	for _, b := range []bool{all, typ != "", len(args) == 1} {
		if b {
			set++
		}
	}
	if set != 1 {
		exitErr("deactivate", fmt.Errorf("give exactly one of: an id, --type or --all"))
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	var entries []model.HistoryEntry
	switch {
	case all:
		entries = a.eng.DeactivateAll(cmd.Context())
	default:
		id := ""
		if len(args) == 1 {
			id = args[0]
		} else {
			mt := model.ModeType(typ)
			if _, err := catalog.Lookup(mt); err != nil {
				exitErr("deactivate", err)
			}
			m, err := a.eng.ActiveByType(mt)
			if err != nil {
				exitErr("deactivate", err)
			}
			id = m.ID
		}
		entry, err := a.eng.Deactivate(cmd.Context(), id)
		if err != nil {
			exitErr("deactivate", err)
		}
		entries = []model.HistoryEntry{*entry}
	}

	if textOutput() {
		if len(entries) == 0 {
			fmt.Println(labelStyle.Render("nothing to deactivate"))
		}
		for _, h := range entries {
			fmt.Printf("%s ended after %d min\n", modeName(h.Type), h.DurationMinutes)
		}
		return
	}
	printJSON(entries)
}
