package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recount/internal/backend"
	"recount/internal/cli"
	"recount/internal/config"
	"recount/internal/core"
	"recount/internal/log"
)

func aliasesCmd() *cobra.Command {
	var stored bool

	cmd := &cobra.Command{
		Use:   "aliases",
		Short: "List the phrases recognized for each category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := core.DefaultAliasTable()

			if stored {
				cfg, err := cli.LoadAndValidateConfig()
				if err != nil {
					return err
				}
				logger := cli.SetupLogger(effectiveLevel(cfg), cmd.ErrOrStderr())
				if err := mergeStoredAliases(cmd, cfg, logger, table); err != nil {
					return err
				}
			}

			return cli.WriteAliases(cmd.OutOrStdout(), table.Entries())
		},
	}

	cmd.Flags().BoolVar(&stored, "stored", false, "include user-defined aliases from the configured backend")
	return cmd
}

func mergeStoredAliases(cmd *cobra.Command, cfg *config.Config, logger *log.Logger, table *core.AliasTable) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(cmd.Context(), backendCfg)
	if err != nil {
		return fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}
	defer res.Close()

	as := res.AliasStore()
	if as == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.WarningStyle.Render(fmt.Sprintf("%s backend does not store aliases", backendCfg.Type)))
		return nil
	}
	entries, err := as.ListAliases(cmd.Context())
	if err != nil {
		return fmt.Errorf("list stored aliases: %w", err)
	}
	for _, e := range entries {
		if err := table.Add(e.Phrase, e.Category); err != nil {
			logger.Warn("Skipping stored alias", log.FieldPhrase, e.Phrase, log.FieldError, err)
		}
	}
	return nil
}
