package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/quiet-assistant/internal/catalog"
	"github.com/rcliao/quiet-assistant/internal/engine"
	"github.com/rcliao/quiet-assistant/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "activate <type>",
		Short: "Activate a mode",
		Long:  "Activate a mode. Activating a type that is already running replaces it; the old session is written to history.",
		Args:  cobra.ExactArgs(1),
		Run:   runActivate,
	}

	cmd.Flags().IntP("duration", "m", 0, "Duration in minutes (default: the mode's default)")
	addSettingsFlags(cmd)

	RootCmd.AddCommand(cmd)
}

// addSettingsFlags registers the per-mode switches shared by activate and update.
func addSettingsFlags(cmd *cobra.Command) {
	cmd.Flags().String("message", "", "Auto-reply message")
	cmd.Flags().Bool("silence", true, "Silence the ringer")
	cmd.Flags().Bool("auto-reply", true, "Reply to callers by SMS")
	cmd.Flags().Bool("contacts-only", false, "Only reply to saved contacts")
	cmd.Flags().Bool("vibrate-only", false, "Vibrate instead of staying fully silent")
}

// settingsPatch builds a patch from the settings flags the user actually passed.
func settingsPatch(cmd *cobra.Command) model.SettingsPatch {
	var p model.SettingsPatch
	f := cmd.Flags()
	if f.Changed("message") {
		v, _ := f.GetString("message")
		p.CustomMessage = &v
	}
	if f.Changed("silence") {
		v, _ := f.GetBool("silence")
		p.AutoSilence = &v
	}
	if f.Changed("auto-reply") {
		v, _ := f.GetBool("auto-reply")
		p.AutoReply = &v
	}
	if f.Changed("contacts-only") {
		v, _ := f.GetBool("contacts-only")
		p.ReplyToContactsOnly = &v
	}
	if f.Changed("vibrate-only") {
		v, _ := f.GetBool("vibrate-only")
		p.VibrateOnly = &v
	}
	return p
}

func runActivate(cmd *cobra.Command, args []string) {
	mt := model.ModeType(args[0])
	if _, err := catalog.Lookup(mt); err != nil {
		exitErr("activate", fmt.Errorf("%w (valid: %v)", err, catalog.Types()))
	}
	minutes, _ := cmd.Flags().GetInt("duration")

	params := engine.ActivateParams{Type: mt, DurationMinutes: minutes}
	if p := settingsPatch(cmd); !p.IsZero() {
		params.Settings = &p
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	mode, err := a.eng.Activate(cmd.Context(), params)
	if err != nil {
		exitErr("activate", err)
	}

	if textOutput() {
		fmt.Printf("%s %s activated (%s)\n", activeStyle.Render("●"), modeName(mode.Type), mode.ID)
		return
	}
	printJSON(mode)
}
