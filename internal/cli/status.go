package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active modes",
		Run:   runStatus,
	}

	RootCmd.AddCommand(cmd)
}

type statusEntry struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	StartTime        time.Time `json:"startTime"`
	EndTime          any       `json:"endTime"`
	RemainingMinutes int       `json:"remainingMinutes"`
	Expired          bool      `json:"expired"`
}

func runStatus(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	now := time.Now()
	modes := a.eng.Active()
	if textOutput() {
		fmt.Println(renderActive(modes, now))
		return
	}

	out := make([]statusEntry, 0, len(modes))
	for _, m := range modes {
		e := statusEntry{
			ID:               m.ID,
			Type:             string(m.Type),
			StartTime:        m.StartTime,
			RemainingMinutes: int(m.Remaining(now) / time.Minute),
		}
		if m.EndTime != nil {
			e.EndTime = *m.EndTime
			e.Expired = !m.EndTime.After(now)
		}
		out = append(out, e)
	}
	printJSON(out)
}
