// Package cli implements the quiet-assistant CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/quiet-assistant/internal/config"
	"github.com/rcliao/quiet-assistant/internal/contacts"
	"github.com/rcliao/quiet-assistant/internal/engine"
	"github.com/rcliao/quiet-assistant/internal/model"
	"github.com/rcliao/quiet-assistant/internal/responder"
	"github.com/rcliao/quiet-assistant/internal/settings"
	"github.com/rcliao/quiet-assistant/internal/store"
)

var (
	dbPath     string
	formatFlag string
	configPath string
	quiet      bool

	cfg = config.DefaultConfig()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "quiet-assistant",
	Short: "Quiet modes with auto-reply for incoming calls",
	Long:  "Activate quiet modes (prayer, meeting, nap, study, custom), keep a history of them and auto-reply to calls while they run. SQLite-backed, single binary.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := config.Load(configPath)
		if err != nil {
			exitErr("load config", err)
		}
		cfg = loaded
		if !cmd.Flags().Changed("format") {
			formatFlag = cfg.Format
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $QUIET_ASSISTANT_DB_PATH or ~/.quiet-assistant/state.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.quiet-assistant/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output on stderr")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.DBPath
}

func newLogger() *log.Logger {
	if quiet {
		return engine.DiscardLogger()
	}
	return log.New(os.Stderr, "quiet-assistant: ", log.LstdFlags)
}

// app bundles the opened store and the engine restored from it.
type app struct {
	kv     *store.SQLiteKV
	states *store.StateStore
	prefs  *settings.Store
	eng    *engine.Engine
	logger *log.Logger
	// swept holds the sessions Restore closed while opening.
	swept  []model.HistoryEntry
}

func openApp(ctx context.Context) (*app, error) {
	return openAppWith(ctx, engine.Options{})
}

// openAppWith opens the store and restores an engine built from opts. Store and Logger are
// always supplied here.
func openAppWith(ctx context.Context, opts engine.Options) (*app, error) {
	kv, err := store.NewSQLiteKV(getDBPath())
	if err != nil {
		return nil, err
	}
	logger := newLogger()
	states := store.NewStateStore(kv)
	opts.Store, opts.Logger = states, logger
	eng := engine.New(opts)
	swept := eng.Restore(ctx)
	return &app{
		kv:     kv,
		states: states,
		prefs:  settings.NewStore(kv),
		eng:    eng,
		logger: logger,
		swept:  swept,
	}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}

// newResponder builds a responder over a logging telephony and the configured contacts file.
func (a *app) newResponder() (*responder.Responder, *responder.LogTelephony) {
	dir, err := contacts.LoadFile(cfg.ContactsFile)
	if err != nil {
		a.logger.Printf("contacts: %v", err)
		dir = contacts.NewMemoryDirectory(nil)
	}
	tel := responder.NewLogTelephony(a.logger)
	r := responder.New(responder.Options{
		Modes:         a.eng,
		Telephony:     tel,
		Contacts:      dir,
		Settings:      a.prefs,
		Logger:        a.logger,
		ReplyCooldown: cfg.Responder.ReplyCooldown,
		RepeatWindow:  cfg.Responder.RepeatWindow,
	})
	return r, tel
}

func textOutput() bool {
	return formatFlag == "text"
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
