package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazypower/scrapbook/internal/client"
	"github.com/lazypower/scrapbook/internal/config"
	"github.com/lazypower/scrapbook/internal/storage"
	"github.com/lazypower/scrapbook/internal/store"
)

var (
	configPath string
	serverURL  string
	adminKey   string
)

var rootCmd = &cobra.Command{
	Use:          "scrapbook",
	Short:        "A personal scrapbook of dated memories",
	Long:         "Scrapbook keeps dated memories with photos and videos, serves them as a grid or timeline, and uploads media to object storage through signed URLs.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file (default $"+config.EnvPath+")")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Scrapbook server URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&adminKey, "admin-key", "", "Admin key for mutations (default $ADMIN_KEY)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(importCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.Client.ServerURL = serverURL
	}
	if adminKey != "" {
		cfg.Admin.Key = adminKey
	}
	return cfg, nil
}

// newClient builds the API client the admin commands share.
func newClient() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.Client.ServerURL, cfg.Admin.Key, cfg.Client.Timeout), nil
}

func storageOptions(cfg *config.Config) storage.Options {
	return storage.Options{
		Region:          cfg.Storage.Region,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Endpoint:        cfg.Storage.Endpoint,
	}
}

// storeOptions maps config onto store.Options. The sqlite backend ignores
// the JSON document default and uses its own database path.
func storeOptions(cfg *config.Config, lister storage.Lister, log *zap.Logger) store.Options {
	path := cfg.Store.Path
	if cfg.Store.Backend == store.BackendSQLite && path == config.Default().Store.Path {
		path = ""
	}
	return store.Options{
		Backend: cfg.Store.Backend,
		Path:    path,
		Lister:  lister,
		Prefix:  cfg.Storage.KeyPrefix,
		Logger:  log,
	}
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
