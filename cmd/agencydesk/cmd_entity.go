package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"agencydesk/internal/export"
	"agencydesk/internal/form"
	"agencydesk/internal/resource"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// entityFlags holds the per-invocation flag values for one entity
// command group.
type entityFlags struct {
	page      int
	limit     int
	search    string
	sortBy    string
	sortOrder string
	filters   []string

	dataFile         string
	docPaths         []string
	extraDocPaths    []string
	policyFile       string
	removeDocs       []int
	deletePolicyFile bool

	exportDir   string
	exportLocal bool
	asJSON      bool
}

func (f *entityFlags) params() resource.Params {
	p := resource.Params{
		Page:      f.page,
		Limit:     f.limit,
		Search:    f.search,
		SortBy:    f.sortBy,
		SortOrder: f.sortOrder,
	}
	if p.Limit == 0 {
		p.Limit = cfg.Lists.PageSize
	}
	if p.SortBy == "" {
		p.SortBy = cfg.Lists.SortBy
	}
	if p.SortOrder == "" {
		p.SortOrder = cfg.Lists.SortOrder
	}
	for _, kv := range f.filters {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if p.Filters == nil {
			p.Filters = map[string]string{}
		}
		p.Filters[k] = v
	}
	return p
}

// newEntityCmd builds the command group for one entity.
func newEntityCmd(name string) *cobra.Command {
	flags := &entityFlags{}
	group := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Manage %s records", name),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Root PersistentPreRunE does the wiring; re-run it since
			// cobra only invokes the nearest one.
			if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return requireSession()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List records",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := services[name].List(cmd.Context(), flags.params())
			if err != nil {
				return err
			}
			if flags.asJSON {
				return printJSON(cmd, page.Items)
			}
			out := cmd.OutOrStdout()
			for _, item := range page.Items {
				fmt.Fprintln(out, summarize(name, item))
			}
			fmt.Fprintf(out, "page %d/%d, %d total\n", page.Page, page.TotalPages, page.Total)
			return nil
		},
	}
	listCmd.Flags().IntVar(&flags.page, "page", 1, "page number")
	listCmd.Flags().IntVar(&flags.limit, "limit", 0, "page size (default from config)")
	listCmd.Flags().StringVar(&flags.search, "search", "", "search term")
	listCmd.Flags().StringVar(&flags.sortBy, "sort-by", "", "sort field")
	listCmd.Flags().StringVar(&flags.sortOrder, "sort-order", "", "asc or desc")
	listCmd.Flags().StringArrayVar(&flags.filters, "filter", nil, "extra filter key=value (repeatable)")
	listCmd.Flags().BoolVar(&flags.asJSON, "json", false, "print raw JSON")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := services[name].Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, item)
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := services[name].Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}

	dropdownCmd := &cobra.Command{
		Use:   "dropdown",
		Short: "List {value, label} pairs for selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := services[name].Dropdown(cmd.Context())
			if err != nil {
				return err
			}
			for _, o := range opts {
				fmt.Fprintf(cmd.OutOrStdout(), "%-26s %s\n", o.Value, o.Label)
			}
			return nil
		},
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record from a JSON draft file",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := loadDraftState(name, flags, nil, nil)
			if err != nil {
				return err
			}
			if errs := services[name].Descriptor().Rules.Validate(state); errs.Any() {
				return validationError(errs)
			}
			sub, err := state.Submit()
			if err != nil {
				return err
			}
			created, err := services[name].Create(cmd.Context(), sub)
			if err != nil {
				return err
			}
			return printJSON(cmd, created)
		},
	}
	addDraftFlags(createCmd, flags)

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a record, reconciling its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			current, err := services[name].Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			state, err := loadDraftState(name, flags, current, existingDocs(current))
			if err != nil {
				return err
			}
			for i := len(flags.removeDocs) - 1; i >= 0; i-- {
				state.RemoveExisting(flags.removeDocs[i])
			}
			if flags.deletePolicyFile {
				state.MarkPolicyFileDeleted()
			}
			if errs := services[name].Descriptor().Rules.Validate(state); errs.Any() {
				return validationError(errs)
			}
			sub, err := state.Submit()
			if err != nil {
				return err
			}
			updated, err := services[name].Update(cmd.Context(), id, sub)
			if err != nil {
				return err
			}
			return printJSON(cmd, updated)
		},
	}
	addDraftFlags(updateCmd, flags)
	updateCmd.Flags().IntSliceVar(&flags.removeDocs, "remove-doc", nil, "existing document index to delete (repeatable)")
	updateCmd.Flags().BoolVar(&flags.deletePolicyFile, "delete-policy-file", false, "delete the stored policy file")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Soft-delete records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := services[name].Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return nil
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a soft-deleted record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services[name].Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
			return nil
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle a record's active status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services[name].ToggleStatus(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "toggled %s\n", args[0])
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export records to a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.exportLocal {
				params := flags.params()
				params.Limit = 1000
				page, err := services[name].List(cmd.Context(), params)
				if err != nil {
					return err
				}
				path := filepath.Join(flags.exportDir, export.DefaultFilename(name, timeNow()))
				if err := export.WriteLocal(path, name, page); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			}

			dl, err := services[name].Export(cmd.Context(), flags.params())
			if err != nil {
				return err
			}
			path, err := export.Save(flags.exportDir, name, dl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", path)
			return nil
		},
	}
	exportCmd.Flags().StringVar(&flags.exportDir, "out", ".", "output directory")
	exportCmd.Flags().BoolVar(&flags.exportLocal, "local", false, "render the workbook locally from list data")
	exportCmd.Flags().StringVar(&flags.search, "search", "", "search term")
	exportCmd.Flags().StringArrayVar(&flags.filters, "filter", nil, "extra filter key=value (repeatable)")

	group.AddCommand(listCmd, getCmd, statsCmd, dropdownCmd, createCmd, updateCmd, deleteCmd, restoreCmd, toggleCmd, exportCmd)
	return group
}

func addDraftFlags(cmd *cobra.Command, flags *entityFlags) {
	cmd.Flags().StringVar(&flags.dataFile, "data", "", "JSON draft file ('-' for stdin)")
	cmd.Flags().StringArrayVar(&flags.docPaths, "doc", nil, "document file to upload (repeatable)")
	cmd.Flags().StringArrayVar(&flags.extraDocPaths, "additional-doc", nil, "file for the entity's second document slot (repeatable)")
	cmd.Flags().StringVar(&flags.policyFile, "policy-file", "", "policy file to upload")
}

// loadDraftState builds the form state for a create or update command:
// the JSON draft overlays current (nil for create), files named on the
// command line are staged.
func loadDraftState(entity string, flags *entityFlags, current map[string]interface{}, docs []form.ExistingDocument) (*form.State, error) {
	desc := services[entity].Descriptor()

	patch := form.Draft{}
	if flags.dataFile != "" {
		data, err := readInput(flags.dataFile)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &patch); err != nil {
			return nil, fmt.Errorf("failed to parse draft JSON: %w", err)
		}
	}

	initial := form.Draft{}
	for k, v := range current {
		initial[k] = v
	}
	for k, v := range patch {
		initial[k] = v
	}

	var state *form.State
	if current == nil {
		state = form.NewCreateFrom(desc.Defaults(), initial, desc.Normalize)
	} else {
		state = form.NewEdit(desc.Defaults(), initial, docs, desc.Normalize)
	}

	stage := func(slot string, paths []string) error {
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read document %s: %w", path, err)
			}
			state.StageFile(slot, filepath.Base(path), data)
		}
		return nil
	}
	if len(flags.docPaths) > 0 {
		if len(desc.FileSlots) == 0 {
			return nil, fmt.Errorf("%s does not take document uploads", entity)
		}
		if err := stage(desc.FileSlots[0].Slot, flags.docPaths); err != nil {
			return nil, err
		}
	}
	if len(flags.extraDocPaths) > 0 {
		if len(desc.FileSlots) < 2 {
			return nil, fmt.Errorf("%s has no additional document slot", entity)
		}
		if err := stage(desc.FileSlots[1].Slot, flags.extraDocPaths); err != nil {
			return nil, err
		}
	}
	if desc.PolicyFileSlot != "" && flags.policyFile != "" {
		data, err := os.ReadFile(flags.policyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read policy file: %w", err)
		}
		state.SetFile(desc.PolicyFileSlot, filepath.Base(flags.policyFile), data)
	}
	return state, nil
}

func existingDocs(item map[string]interface{}) []form.ExistingDocument {
	raw, ok := item["documents"].([]interface{})
	if !ok {
		raw, _ = item["uploadDocuments"].([]interface{})
	}
	var docs []form.ExistingDocument
	for _, r := range raw {
		m, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		doc := form.ExistingDocument{}
		doc.ID, _ = m["_id"].(string)
		doc.Name, _ = m["documentName"].(string)
		doc.URL, _ = m["documentUrl"].(string)
		if doc.ID != "" || doc.URL != "" {
			docs = append(docs, doc)
		}
	}
	return docs
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return os.ReadFile("/dev/stdin")
	}
	return os.ReadFile(path)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func validationError(errs map[string]string) error {
	parts := make([]string, 0, len(errs))
	for field, msg := range errs {
		parts = append(parts, field+": "+msg)
	}
	return fmt.Errorf("validation failed\n  %s", strings.Join(parts, "\n  "))
}

// summarize renders one list row as a single line.
func summarize(entity string, item map[string]interface{}) string {
	id, _ := item["_id"].(string)
	cols := columnsSummary(entity, item)
	return fmt.Sprintf("%-26s %s", id, cols)
}

func columnsSummary(entity string, item map[string]interface{}) string {
	get := func(path ...string) string {
		cur := item
		for i, p := range path {
			if i == len(path)-1 {
				if s, ok := cur[p].(string); ok {
					return s
				}
				return ""
			}
			next, ok := cur[p].(map[string]interface{})
			if !ok {
				return ""
			}
			cur = next
		}
		return ""
	}
	if entity == "customer" {
		name := strings.TrimSpace(get("personalDetails", "firstName") + " " + get("personalDetails", "lastName"))
		return fmt.Sprintf("%-22s %s", name, get("customerType"))
	}
	return fmt.Sprintf("%-18s %s", get("insuranceDetails", "policyNumber"), get("insuranceDetails", "insuranceCompany"))
}
