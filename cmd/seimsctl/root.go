package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Mica1614/seims-ai-scanner/internal/config"
	"github.com/Mica1614/seims-ai-scanner/internal/firebase"
	"github.com/Mica1614/seims-ai-scanner/internal/log"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "seimsctl",
		Short:         "Inspect and verify the Firebase setup of the SEIMS scanner backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", os.Getenv("CONFIG_FILE"), "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment")

	cmd.AddCommand(newConfigCmd(opts), newCheckCmd(opts))
	return cmd
}

func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.LoadWith(config.Options{File: o.configFile, EnvFile: o.envFile})
	if err != nil {
		return config.Config{}, err
	}
	log.Configure(log.Config{Level: cfg.LogLevel, Output: os.Stderr, Service: "seimsctl"})
	return cfg, nil
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the Firebase config record with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			printRecord(cmd.OutOrStdout(), cfg.Firebase)
			if missing := cfg.Firebase.Missing(); len(missing) > 0 {
				return fmt.Errorf("%w: %s", config.ErrMissingField, strings.Join(missing, ", "))
			}
			return nil
		},
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Initialize the app and derive the data client and service clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, err := opts.load()
			if err != nil {
				return err
			}
			clientOpts, err := firebase.ClientOptions(cfg)
			if err != nil {
				return err
			}

			app, err := firebase.Initialize(ctx, cfg.Firebase, clientOpts...)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.DataClient(ctx); err != nil {
				return err
			}
			fmt.Fprintf(out, "project:   %s\n", app.ProjectID())
			fmt.Fprintf(out, "database:  %s\n", firebase.DatabasePath(app.ProjectID()))

			_, err = app.Auth(ctx)
			report(out, "auth", err)
			_, err = app.Bucket(ctx)
			report(out, "storage", err)
			_, err = app.Messaging(ctx)
			report(out, "messaging", err)
			return nil
		},
	}
}

func printRecord(w io.Writer, c config.FirebaseConfig) {
	for _, f := range c.Masked().Fields() {
		v := f.Value
		if v == "" {
			v = "<missing>"
		}
		fmt.Fprintf(w, "%-18s %s\n", f.Key+":", v)
	}
}

func report(w io.Writer, name string, err error) {
	if err != nil {
		fmt.Fprintf(w, "%-10s unavailable (%v)\n", name+":", err)
		return
	}
	fmt.Fprintf(w, "%-10s ok\n", name+":")
}
