package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change user settings",
	}

	get := &cobra.Command{
		Use:   "get [key]",
		Short: "Print all settings, or one dotted key such as emergency.maxCalls",
		Args:  cobra.MaximumNArgs(1),
		Run:   runSettingsGet,
	}
	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one dotted key; the value is parsed as JSON when possible",
		Args:  cobra.ExactArgs(2),
		Run:   runSettingsSet,
	}
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Run:   runSettingsReset,
	}
	cmd.AddCommand(get, set, reset)

	RootCmd.AddCommand(cmd)
}

func runSettingsGet(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	st, err := a.prefs.Load(cmd.Context())
	if err != nil {
		a.logger.Printf("settings: %v (showing defaults)", err)
	}
	if len(args) == 0 {
		printJSON(st)
		return
	}

	b, _ := json.Marshal(st)
	var cur any
	json.Unmarshal(b, &cur)
	for _, p := range strings.Split(args[0], ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			exitErr("settings get", fmt.Errorf("unknown key %q", args[0]))
		}
		if cur, ok = m[p]; !ok {
			exitErr("settings get", fmt.Errorf("unknown key %q", args[0]))
		}
	}
	printJSON(cur)
}

func runSettingsSet(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	st, err := a.prefs.Set(cmd.Context(), args[0], args[1])
	if err != nil {
		exitErr("settings set", err)
	}
	printJSON(st)
}

func runSettingsReset(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	st, err := a.prefs.Reset(cmd.Context())
	if err != nil {
		exitErr("settings reset", err)
	}
	printJSON(st)
}
