package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the settings of an active mode",
		Args:  cobra.ExactArgs(1),
		Run:   runUpdate,
	}

	addSettingsFlags(cmd)

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	patch := settingsPatch(cmd)
	if patch.IsZero() {
		exitErr("update", fmt.Errorf("no settings given"))
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	if err := a.eng.UpdateSettings(cmd.Context(), args[0], patch); err != nil {
		exitErr("update", err)
	}
	m, err := a.eng.Get(args[0])
	if err != nil {
		exitErr("update", err)
	}

	if textOutput() {
		fmt.Printf("%s: %s\n", modeName(m.Type), switches(m.Settings))
		return
	}
	printJSON(m)
}
