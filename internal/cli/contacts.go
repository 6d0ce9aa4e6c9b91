package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/quiet-assistant/internal/contacts"
)

func init() {
	cmd := &cobra.Command{
		Use:   "contacts [query]",
		Short: "List or search the contacts file used for contacts-only replies",
		Args:  cobra.MaximumNArgs(1),
		Run:   runContacts,
	}

	RootCmd.AddCommand(cmd)
}

func runContacts(cmd *cobra.Command, args []string) {
	dir, err := contacts.LoadFile(cfg.ContactsFile)
	if err != nil {
		exitErr("load contacts", err)
	}

	var list []contacts.Contact
	if len(args) == 1 {
		list, err = dir.Search(cmd.Context(), args[0])
	} else {
		list, err = dir.All(cmd.Context())
	}
	if err != nil {
		exitErr("contacts", err)
	}
	if list == nil {
		list = []contacts.Contact{}
	}

	if textOutput() {
		for _, c := range list {
			fmt.Printf("%-24s %s\n", c.Name, c.PhoneNumber)
		}
		return
	}
	printJSON(list)
}
