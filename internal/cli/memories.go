package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/scrapbook/internal/admin"
	"github.com/lazypower/scrapbook/internal/client"
	"github.com/lazypower/scrapbook/internal/memory"
)

// --- list / search ---

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List memories, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd, "")
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search memories by title, description, location or tag",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd, strings.Join(args, " "))
	},
}

func runList(cmd *cobra.Command, query string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	entries, err := c.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list memories: %w", err)
	}
	entries = memory.Filter(query, entries)

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		if query != "" {
			fmt.Fprintln(out, "No results found.")
		} else {
			fmt.Fprintln(out, "No memories yet.")
		}
		return nil
	}
	for _, e := range entries {
		printEntry(out, e)
	}
	return nil
}

func printEntry(w io.Writer, e memory.Entry) {
	fmt.Fprintf(w, "%s  %s", e.Date, e.Title)
	if e.Location != "" {
		fmt.Fprintf(w, " (%s)", e.Location)
	}
	fmt.Fprintf(w, "  [%d media]\n", len(e.Photos))
	fmt.Fprintf(w, "   id: %s\n", e.ID)
	if e.Description != "" {
		fmt.Fprintf(w, "   %s\n", e.Description)
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(w, "   #%s\n", strings.Join(e.Tags, " #"))
	}
}

// --- upload / add ---

// uploadFiles runs the two-phase upload for every path, reporting each
// failure and keeping the rest.
func uploadFiles(ctx context.Context, w io.Writer, u *admin.Uploads, paths []string) error {
	files := make([]admin.File, 0, len(paths))
	for _, p := range paths {
		f, err := admin.FileFromPath(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, f)
	}
	err := u.AddAll(ctx, files)
	for _, d := range u.Done() {
		fmt.Fprintf(w, "uploaded %s -> %s\n", d.File, d.Key)
	}
	return err
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload media and print the storage keys",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return uploadFiles(cmd.Context(), cmd.OutOrStdout(), admin.NewUploads(c), args)
	},
}

var (
	fieldTitle       string
	fieldDate        string
	fieldLocation    string
	fieldDescription string
	fieldTags        []string
)

var addCmd = &cobra.Command{
	Use:   "add <media-file>...",
	Short: "Upload media and create a memory",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	form := admin.NewForm(c, admin.NewUploads(c))
	form.Title, form.Date = fieldTitle, fieldDate
	form.Location, form.Description = fieldLocation, fieldDescription
	form.Tags = fieldTags

	if err := uploadFiles(ctx, out, form.Uploads, args); err != nil {
		if len(form.Uploads.Done()) == 0 {
			return err
		}
		warnf("%v", err)
	}

	e, err := form.Submit(ctx)
	if err != nil {
		return fmt.Errorf("create memory: %w", explain(err))
	}
	fmt.Fprintln(out, "Memory saved!")
	printEntry(out, e)
	return nil
}

// --- edit ---

var editMedia []string

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a memory",
	Long:  "Only the flags given are sent. --media uploads files and replaces the memory's media with them.",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	form := admin.NewForm(c, admin.NewUploads(c))

	var p memory.Patch
	flags := cmd.Flags()
	if flags.Changed("title") {
		p.Title = &fieldTitle
	}
	if flags.Changed("date") {
		p.Date = &fieldDate
	}
	if flags.Changed("location") {
		p.Location = &fieldLocation
	}
	if flags.Changed("description") {
		p.Description = &fieldDescription
	}
	if flags.Changed("tag") {
		p.Tags = &fieldTags
	}
	if len(editMedia) > 0 {
		if err := uploadFiles(ctx, out, form.Uploads, editMedia); err != nil {
			return err
		}
		refs := form.Uploads.Refs()
		p.Photos = &refs
	}

	e, err := form.Update(ctx, args[0], p)
	if err != nil {
		return fmt.Errorf("update memory: %w", explain(err))
	}
	fmt.Fprintln(out, "Saved!")
	printEntry(out, e)
	return nil
}

// --- rm ---

var rmYes bool

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a memory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	id := args[0]
	form := admin.NewForm(c, admin.NewUploads(c))

	ok := rmYes
	if !ok {
		label := id
		if e, err := c.Get(ctx, id); err == nil {
			label = fmt.Sprintf("%q (%s)", e.Title, e.Date)
		}
		ok = confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %s? This cannot be undone. [y/N] ", label))
	}
	form.Confirm(ok)

	if err := form.Delete(ctx, id); err != nil {
		if errors.Is(err, admin.ErrNotConfirmed) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		return fmt.Errorf("delete memory: %w", explain(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// explain adds a hint to errors a user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return fmt.Errorf("%w (check --admin-key or ADMIN_KEY)", err)
	case errors.Is(err, admin.ErrNoMedia):
		return fmt.Errorf("%w (no upload succeeded)", err)
	}
	return err
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print entries as JSON")
	searchCmd.Flags().BoolVar(&listJSON, "json", false, "Print entries as JSON")

	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVarP(&fieldTitle, "title", "t", "", "Title")
		c.Flags().StringVarP(&fieldDate, "date", "d", "", "Date (YYYY-MM-DD)")
		c.Flags().StringVarP(&fieldLocation, "location", "l", "", "Location")
		c.Flags().StringVar(&fieldDescription, "description", "", "Description")
		c.Flags().StringSliceVar(&fieldTags, "tag", nil, "Tag (repeatable)")
	}
	addCmd.MarkFlagRequired("title") //nolint:errcheck
	addCmd.MarkFlagRequired("date")  //nolint:errcheck

	editCmd.Flags().StringSliceVar(&editMedia, "media", nil, "Upload files and replace the memory's media")
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "Skip the confirmation prompt")
}
