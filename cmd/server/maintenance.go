package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/logger"
	"github.com/warp/payroll-engine/store/sqlite"
)

func newMigrateCmd(a *app) *cobra.Command {
	var down, status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := sqlite.Open(a.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			log := logger.Global()
			switch {
			case status:
				st, err := store.MigrationStatus()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "current: %d\nlatest:  %d\ndirty:   %t\npending: %t\n",
					st.CurrentVersion, st.LatestVersion, st.Dirty, st.Pending)
				return nil
			case down:
				if err := store.MigrateDown(); err != nil {
					return fmt.Errorf("failed to revert migrations: %w", err)
				}
				log.Info().Str("db", a.cfg.Database.Path).Msg("migrations reverted")
				return nil
			default:
				if err := store.Migrate(); err != nil {
					return fmt.Errorf("failed to apply migrations: %w", err)
				}
				log.Info().Str("db", a.cfg.Database.Path).Msg("migrations applied")
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "revert every migration (drops all data)")
	cmd.Flags().BoolVar(&status, "status", false, "print the migration version and exit")
	return cmd
}

func newRebuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Extend every ledger to today and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, store, err := a.openService()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := logger.WithContext(context.Background(), logger.Global())
			changed, err := svc.RebuildAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d ledger(s) updated\n", changed)
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	var scenario string
	var list bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Reset the database and load a demo scenario",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				for _, s := range api.Scenarios() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", s.ID, s.Description)
				}
				return nil
			}

			svc, store, err := a.openService()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := logger.WithContext(context.Background(), logger.Global())
			if err := api.LoadScenario(ctx, svc, scenario); err != nil {
				return err
			}
			log := logger.Global()
			log.Info().Str("scenario", scenario).Str("db", a.cfg.Database.Path).Msg("scenario loaded")
			return nil
		},
	}
	cmd.Flags().StringVar(&scenario, "scenario", "single-employee", "scenario id")
	cmd.Flags().BoolVar(&list, "list", false, "list scenarios and exit")
	return cmd
}
