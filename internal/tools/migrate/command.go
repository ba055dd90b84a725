package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/veyucu/fastits/internal/config"
	"github.com/veyucu/fastits/internal/database"
	"github.com/veyucu/fastits/internal/domain"
	"github.com/veyucu/fastits/internal/tools/common"
	"github.com/veyucu/fastits/internal/tools/ui"
)

type options struct {
	ci      bool
	timeout time.Duration
	envFile string
}

type schemaTable struct {
	name  string
	model any
}

func schemaTables() []schemaTable {
	return []schemaTable{
		{name: "shipment_headers", model: &domain.ShipmentHeader{}},
		{name: "hierarchy_records", model: &domain.HierarchyRecord{}},
		{name: "receipt_documents", model: &domain.ReceiptDocument{}},
		{name: "receipt_lines", model: &domain.ReceiptLine{}},
		{name: "receipt_scans", model: &domain.ReceiptScan{}},
	}
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "migrate",
		Short: "Apply and inspect the database schema",
	}
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "print a machine readable JSON result")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "env file to load before reading configuration")

	root.AddCommand(newUpCommand(opts), newStatusCommand(opts), newPlanCommand(opts))
	return root
}

func newUpCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply the schema to the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "migrate up", "up", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				if err := database.Migrate(db.WithContext(ctx)); err != nil {
					return nil, err
				}
				details := make([]string, 0, len(schemaTables()))
				for _, table := range schemaTables() {
					details = append(details, "applied "+table.name)
				}
				return details, nil
			})
			return err
		},
	}
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report which schema tables exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "migrate status", "status", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				migrator := db.WithContext(ctx).Migrator()
				details := make([]string, 0, len(schemaTables()))
				for _, table := range schemaTables() {
					state := "present"
					if !migrator.HasTable(table.model) {
						state = "missing"
					}
					details = append(details, fmt.Sprintf("%s: %s", table.name, state))
				}
				return details, nil
			})
			return err
		},
	}
}

func newPlanCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "List the tables an up run would create",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "migrate plan", "plan", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				migrator := db.WithContext(ctx).Migrator()
				var details []string
				for _, table := range schemaTables() {
					if !migrator.HasTable(table.model) {
						details = append(details, "create "+table.name)
					}
				}
				if len(details) == 0 {
					details = append(details, "schema up to date")
				}
				return details, nil
			})
			return err
		},
	}
}

func run(opts *options, title, operation string, action func(context.Context) ([]string, error)) ([]string, error) {
	timed := func(ctx context.Context) ([]string, error) {
		ctx, cancel := context.WithTimeout(ctx, opts.timeout)
		defer cancel()
		return action(ctx)
	}
	if opts.ci {
		details, err := timed(context.Background())
		common.PrintCIResult(err == nil, "migrate/"+operation, details, err)
		return details, err
	}
	var details []string
	err := ui.Run(title, func(ctx context.Context) ([]string, error) {
		var actionErr error
		details, actionErr = timed(ctx)
		return details, actionErr
	})
	return details, err
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
