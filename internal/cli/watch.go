package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/quiet-assistant/internal/engine"
	"github.com/rcliao/quiet-assistant/internal/model"
	"github.com/rcliao/quiet-assistant/internal/responder"
	"github.com/rcliao/quiet-assistant/internal/timecodec"
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the sweeper and the call responder",
		Long: `Run in the foreground: expired modes are swept on an interval and the telephony
listener follows the active set. When stdin is piped, each line is read as a call event
({"phoneNumber":"...","callState":"RINGING","timestamp":1714557600000}) and the command
exits at end of input; otherwise it runs until interrupted.`,
		Run: runWatch,
	}

	cmd.Flags().Duration("interval", 0, "Sweep interval (default: sweep_interval from config)")

	RootCmd.AddCommand(cmd)
}

// callEventInput is the wire form of a call event; the timestamp may be epoch millis or ISO-8601.
type callEventInput struct {
	PhoneNumber string `json:"phoneNumber"`
	CallState   string `json:"callState"`
	Timestamp   any    `json:"timestamp"`
}

func (in callEventInput) event() (responder.CallEvent, error) {
	ev := responder.CallEvent{
		PhoneNumber: in.PhoneNumber,
		CallState:   responder.CallState(strings.ToUpper(in.CallState)),
	}
	ts, err := timecodec.DecodePtr(in.Timestamp)
	if err != nil {
		return ev, fmt.Errorf("timestamp: %w", err)
	}
	if ts != nil {
		ev.Timestamp = *ts
	}
	return ev, nil
}

func runWatch(cmd *cobra.Command, args []string) {
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = cfg.SweepInterval
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var r *responder.Responder
	a, err := openAppWith(ctx, engine.Options{
		OnChange: func(model.State) {
			if r == nil {
				return
			}
			if err := r.Sync(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "sync: %v\n", err)
			}
		},
	})
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	r, tel := a.newResponder()
	if err := r.Start(ctx); err != nil {
		exitErr("start responder", err)
	}
	defer tel.StopListening(context.Background())

	go a.eng.Run(ctx, interval)
	a.logger.Printf("watching (sweep every %s)", interval)

	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		<-ctx.Done()
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var in callEventInput
		if err := json.Unmarshal([]byte(line), &in); err != nil {
			a.logger.Printf("skip event: %v", err)
			continue
		}
		ev, err := in.event()
		if err != nil {
			a.logger.Printf("skip event: %v", err)
			continue
		}
		out, err := r.HandleIncomingCall(ctx, ev)
		if err != nil {
			a.logger.Printf("handle call: %v", err)
			continue
		}
		b, _ := json.Marshal(out)
		fmt.Println(string(b))
	}
	if err := scanner.Err(); err != nil {
		exitErr("read stdin", err)
	}
}
