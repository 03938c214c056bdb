package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazypower/scrapbook/internal/memory"
	"github.com/lazypower/scrapbook/internal/store"
)

var importOverwrite bool

var importCmd = &cobra.Command{
	Use:   "import <memories.json>",
	Short: "Copy a JSON document of memories into the configured store",
	Long:  "Read a JSON array of memories and create each one in the configured store backend. Existing ids are skipped unless --overwrite is given.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Backend == store.BackendS3 {
		return fmt.Errorf("import: %w", store.ErrReadOnly)
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	src, err := store.OpenFile(args[0], zap.NewNop())
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	entries, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	dst, err := store.New(storeOptions(cfg, nil, zap.NewNop()))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer dst.Close()

	var created, replaced, skipped int
	for _, e := range entries {
		if err := memory.Validate(e); err != nil || e.ID == "" {
			warnf("skipping %q: invalid entry", e.ID)
			skipped++
			continue
		}
		_, err := dst.Create(ctx, e)
		switch {
		case err == nil:
			created++
		case errors.Is(err, store.ErrExists) && importOverwrite:
			photos := e.Photos
			tags := e.Tags
			_, err = dst.Update(ctx, e.ID, memory.Patch{
				Title:       &e.Title,
				Date:        &e.Date,
				Location:    &e.Location,
				Description: &e.Description,
				Tags:        &tags,
				Photos:      &photos,
			})
			if err != nil {
				return fmt.Errorf("update %s: %w", e.ID, err)
			}
			replaced++
		case errors.Is(err, store.ErrExists):
			skipped++
		default:
			return fmt.Errorf("create %s: %w", e.ID, err)
		}
	}

	fmt.Fprintf(out, "Imported %d memories into %s", created, dst.Backend())
	if replaced > 0 {
		fmt.Fprintf(out, ", replaced %d", replaced)
	}
	if skipped > 0 {
		fmt.Fprintf(out, ", skipped %d", skipped)
	}
	fmt.Fprintln(out)
	return nil
}

func init() {
	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "Replace memories whose id already exists")
}
