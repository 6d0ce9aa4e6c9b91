package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/quiet-assistant/internal/catalog"
	"github.com/rcliao/quiet-assistant/internal/engine"
	"github.com/rcliao/quiet-assistant/internal/model"
	"github.com/rcliao/quiet-assistant/internal/timecodec"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List completed mode sessions",
		Run:   runHistory,
	}

	cmd.Flags().StringP("period", "p", "all", "Period: all, today, week, month")
	cmd.Flags().StringP("type", "t", "", "Filter by mode type")
	cmd.Flags().String("since", "", "Only sessions started at or after (YYYY-MM-DD or RFC3339)")
	cmd.Flags().String("until", "", "Only sessions started at or before (YYYY-MM-DD or RFC3339)")
	cmd.Flags().IntP("limit", "l", 0, "Max results (0 = all)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history",
		Run:   runHistoryClear,
	}
	cmd.AddCommand(clearCmd)

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	period, _ := cmd.Flags().GetString("period")
	typ, _ := cmd.Flags().GetString("type")
	sinceStr, _ := cmd.Flags().GetString("since")
	untilStr, _ := cmd.Flags().GetString("until")
	limit, _ := cmd.Flags().GetInt("limit")

	f, err := engine.PeriodFilter(engine.Period(period), time.Now())
	if err != nil {
		exitErr("history", err)
	}
	if typ != "" {
		if _, err := catalog.Lookup(model.ModeType(typ)); err != nil {
			exitErr("history", err)
		}
		f.Type = model.ModeType(typ)
	}
	if sinceStr != "" {
		t, err := parseDate(sinceStr, false)
		if err != nil {
			exitErr("parse --since", err)
		}
		f.Since = &t
	}
	if untilStr != "" {
		t, err := parseDate(untilStr, true)
		if err != nil {
			exitErr("parse --until", err)
		}
		f.Until = &t
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	entries := a.eng.History(f)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	if textOutput() {
		fmt.Println(renderHistory(entries))
		return
	}
	printJSON(entries)
}

func runHistoryClear(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	n := len(a.eng.History(engine.HistoryFilter{}))
	a.eng.ClearHistory(cmd.Context())
	fmt.Printf(`{"ok":true,"cleared":%d}`+"\n", n)
}

// parseDate accepts a local calendar date or any timestamp the codec understands. A bare
// date used as an upper bound covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if d, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		if endOfDay {
			return d.AddDate(0, 0, 1).Add(-time.Millisecond), nil
		}
		return d, nil
	}
	return timecodec.Decode(s)
}
