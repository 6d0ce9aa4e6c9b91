package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/quiet-assistant/internal/responder"
)

func init() {
	cmd := &cobra.Command{
		Use:   "call <phone>",
		Short: "Simulate an incoming call",
		Long:  "Simulate an incoming call against the active modes. SMS replies are logged instead of sent, and attempts are recorded in the call log.",
		Args:  cobra.ExactArgs(1),
		Run:   runCall,
	}

	cmd.Flags().String("state", string(responder.CallRinging), "Call state: RINGING, IDLE or OFFHOOK")

	RootCmd.AddCommand(cmd)
}

type callOutput struct {
	responder.Outcome
	Sent []responder.SentMessage `json:"sent"`
}

func runCall(cmd *cobra.Command, args []string) {
	state, _ := cmd.Flags().GetString("state")

	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	r, tel := a.newResponder()
	if err := r.Start(cmd.Context()); err != nil {
		exitErr("start responder", err)
	}

	out, err := r.HandleIncomingCall(cmd.Context(), responder.CallEvent{
		PhoneNumber: args[0],
		CallState:   responder.CallState(strings.ToUpper(state)),
		Timestamp:   time.Now(),
	})
	if err != nil {
		exitErr("call", err)
	}

	res := callOutput{Outcome: out, Sent: tel.Sent()}
	if res.Sent == nil {
		res.Sent = []responder.SentMessage{}
	}
	if textOutput() {
		line := string(out.Action)
		if out.Reason != "" {
			line += ": " + out.Reason
		}
		fmt.Println(headerStyle.Render(line))
		for _, s := range res.Sent {
			fmt.Printf("%s %s\n", labelStyle.Render("sms →"), s.Message)
		}
		return
	}
	printJSON(res)
}
