package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonvc/bookkeeper/internal/ledger"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the owner's ledger settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		st, err := c.GetSettings(context.Background())
		if err != nil {
			return err
		}
		printSettings(st)
		return nil
	},
}

var (
	setDoubleEntry  bool
	setAutoPromote  bool
	setMinDocuments int
	setRequiredDocs []string
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings; only the flags given are updated",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		patch := map[string]any{}
		flags := cmd.Flags()
		if flags.Changed("double-entry") {
			patch["double_entry_mode"] = setDoubleEntry
		}
		if flags.Changed("auto-pending") {
			patch["auto_draft_to_pending"] = setAutoPromote
		}
		if flags.Changed("min-documents") {
			patch["min_required_documents"] = setMinDocuments
		}
		if flags.Changed("required-doc") {
			patch["required_document_type_ids"] = setRequiredDocs
		}
		if len(patch) == 0 {
			return fmt.Errorf("nothing to change")
		}
		st, err := c.UpdateSettings(context.Background(), patch)
		if err != nil {
			return err
		}
		printSettings(st)
		return nil
	},
}

func printSettings(st *ledger.Settings) {
	fmt.Printf("Double-entry mode:       %v\n", st.DoubleEntryMode)
	fmt.Printf("Auto draft to pending:   %v\n", st.AutoDraftToPending)
	fmt.Printf("Min required documents:  %d\n", st.MinRequiredDocuments)
	if len(st.RequiredDocumentTypeIDs) > 0 {
		fmt.Printf("Required document types: %s\n", strings.Join(st.RequiredDocumentTypeIDs, ", "))
	}
}

var doctypeCmd = &cobra.Command{
	Use:   "doctype",
	Short: "Manage supporting document types",
}

var doctypeRequired bool

var doctypeCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a document type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		dt, err := c.CreateDocumentType(context.Background(), args[0], doctypeRequired)
		if err != nil {
			return err
		}
		fmt.Printf("Document type created: %s %s (required: %v)\n", dt.ID, dt.Name, dt.IsRequired)
		return nil
	},
}

var doctypeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List document types",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		types, err := c.ListDocumentTypes(context.Background())
		if err != nil {
			return err
		}
		if len(types) == 0 {
			fmt.Println("No document types found.")
			return nil
		}
		fmt.Printf("%-36s %-30s %s\n", "ID", "NAME", "REQUIRED")
		for _, dt := range types {
			fmt.Printf("%-36s %-30s %v\n", dt.ID, truncate(dt.Name, 30), dt.IsRequired)
		}
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().BoolVar(&setDoubleEntry, "double-entry", true, "Require debit and credit accounts")
	settingsSetCmd.Flags().BoolVar(&setAutoPromote, "auto-pending", false, "Promote complete drafts to pending on save")
	settingsSetCmd.Flags().IntVar(&setMinDocuments, "min-documents", 0, "Required documents needed to reconcile (0 = all)")
	settingsSetCmd.Flags().StringSliceVar(&setRequiredDocs, "required-doc", nil, "Required document type ID (can be repeated)")
	settingsCmd.AddCommand(settingsSetCmd)

	doctypeCreateCmd.Flags().BoolVar(&doctypeRequired, "required", false, "Needed before reconciling")
	doctypeCmd.AddCommand(doctypeCreateCmd)
	doctypeCmd.AddCommand(doctypeListCmd)

	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(doctypeCmd)
}
