package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/quiet-assistant/internal/contacts"
	"github.com/rcliao/quiet-assistant/internal/engine"
	"github.com/rcliao/quiet-assistant/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "List the auto-reply call log",
		Run:   runCalls,
	}

	cmd.Flags().StringP("type", "t", "", "Filter by mode type")
	cmd.Flags().StringP("status", "s", "", "Filter by status: sent, failed, pending")
	cmd.Flags().String("phone", "", "Filter by phone number")
	cmd.Flags().IntP("limit", "l", 50, "Max results (0 = all)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the call log",
		Run:   runCallsClear,
	}
	cmd.AddCommand(clearCmd)

	RootCmd.AddCommand(cmd)
}

func runCalls(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	status, _ := cmd.Flags().GetString("status")
	phone, _ := cmd.Flags().GetString("phone")
	limit, _ := cmd.Flags().GetInt("limit")

	if status != "" && !model.ValidCallStatuses[model.CallStatus(status)] {
		exitErr("calls", fmt.Errorf("invalid status %q (valid: sent, failed, pending)", status))
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	logs := a.eng.CallLogs(engine.CallLogFilter{
		Type:   model.ModeType(typ),
		Status: model.CallStatus(status),
		Phone:  contacts.FormatPhoneNumber(phone),
		Limit:  limit,
	})

	if textOutput() {
		fmt.Println(renderCalls(logs))
		return
	}
	printJSON(logs)
}

func runCallsClear(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	n := len(a.eng.CallLogs(engine.CallLogFilter{}))
	a.eng.ClearCallLogs(cmd.Context())
	fmt.Printf(`{"ok":true,"cleared":%d}`+"\n", n)
}
