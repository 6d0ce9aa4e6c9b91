package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/quiet-assistant/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default values",
		Run:   runConfigInit,
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Run:   runConfigShow,
	}
	cmd.AddCommand(initCmd, show)

	RootCmd.AddCommand(cmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !force {
		exitErr("config init", fmt.Errorf("%s already exists (use --force to overwrite)", path))
	}
	if err := config.WriteDefault(path); err != nil {
		exitErr("config init", err)
	}
	fmt.Printf(`{"ok":true,"path":%q}`+"\n", path)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		exitErr("config show", err)
	}
	fmt.Print(string(b))
}
