// Package cli implements leasectl, the operator command line.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"propertyops-backend/internal/app"
	"propertyops-backend/internal/application/payments"
	"propertyops-backend/internal/config"
	"propertyops-backend/internal/infrastructure/database"
	"propertyops-backend/internal/interfaces/handlers/request"
	"propertyops-backend/internal/middleware"
	"propertyops-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Actor is recorded in the audit log for CLI runs.
const Actor = "system:leasectl"

type env struct {
	cfg *config.Config
	svc *app.Services
}

func (e *env) close() {
	if e.svc.Rdb != nil {
		_ = e.svc.Rdb.Close()
	}
	if e.svc.DB != nil {
		if sqlDB, err := e.svc.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// NewRootCmd builds the leasectl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "leasectl",
		Short:         "Operate the property lease service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("sqlite", "", "use a SQLite file instead of the configured Postgres database")

	root.AddCommand(
		migrateCmd(),
		repairCmd(),
		checkCmd(),
		sweepOverdueCmd(),
		releaseHoldsCmd(),
		lateFeeCmd(),
		sessionCmd(),
	)
	return root
}

func open(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Parse Redis first so a bad URL never leaves an opened DB behind.
	var rdbOpt *redis.Options
	if cfg.RedisURL != "" {
		if rdbOpt, err = redis.ParseURL(cfg.RedisURL); err != nil {
			return nil, fmt.Errorf("REDIS_URL: %w", err)
		}
	}
	var db *gorm.DB
	if path, _ := cmd.Flags().GetString("sqlite"); path != "" {
		db, err = database.OpenSQLite(path)
	} else if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
	} else {
		err = errors.New("no database configured: set DATABASE_URL_* or pass --sqlite")
	}
	if err != nil {
		return nil, err
	}
	var rdb *redis.Client
	if rdbOpt != nil {
		rdb = redis.NewClient(rdbOpt)
	}
	return &env{cfg: cfg, svc: app.NewServices(cfg, db, rdb, nil)}, nil
}

func correlationID(name string) string {
	return "cli:" + name + ":" + uuid.NewString()
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withEnv opens the stores, runs fn and closes them.
func withEnv(fn func(cmd *cobra.Command, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		e, err := open(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		return fn(cmd, e)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and indexes",
		RunE: withEnv(func(cmd *cobra.Command, e *env) error {
			if err := database.AutoMigrate(e.svc.DB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		}),
	}
}

func repairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Re-derive unit statuses from active leases and live holds",
		RunE: withEnv(func(cmd *cobra.Command, e *env) error {
			res, err := e.svc.Integrity.RepairUnitStatuses(cmd.Context(), Actor, correlationID("repair"))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		}),
	}
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report lease/unit status mismatches; exits non-zero while any remain",
		RunE: withEnv(func(cmd *cobra.Command, e *env) error {
			autoFix, _ := cmd.Flags().GetBool("auto-fix")
			res, err := e.svc.Integrity.Check(cmd.Context(), autoFix, Actor, correlationID("check"))
			if err != nil {
				return err
			}
			if err := printJSON(cmd, res); err != nil {
				return err
			}
			if res.Remaining > 0 {
				return fmt.Errorf("%d mismatch(es) remain", res.Remaining)
			}
			return nil
		}),
	}
	cmd.Flags().Bool("auto-fix", false, "repair mismatches that are found")
	return cmd
}

func sweepOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Apply late fees to pending payments past the grace period",
		RunE: withEnv(func(cmd *cobra.Command, e *env) error {
			res, err := e.svc.Payments.ProcessOverduePayments(cmd.Context(), Actor, correlationID("sweep-overdue"))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		}),
	}
}

func releaseHoldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release-holds",
		Short: "Release expired holds and free their units",
		RunE: withEnv(func(cmd *cobra.Command, e *env) error {
			n, err := e.svc.Holds.ReleaseExpiredHolds(cmd.Context(), Actor, correlationID("release-holds"))
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int64{"released": n})
		}),
	}
}

func lateFeeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "late-fee",
		Short: "Quote the late fee for a due date and amount",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dueArg, _ := cmd.Flags().GetString("due")
			amountArg, _ := cmd.Flags().GetString("amount")
			asOfArg, _ := cmd.Flags().GetString("as-of")
			due, err := request.ParseDate(dueArg)
			if err != nil {
				return fmt.Errorf("--due: %w", err)
			}
			amount, err := decimal.NewFromString(amountArg)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
			asOf := time.Now().UTC()
			if asOfArg != "" {
				if asOf, err = request.ParseDate(asOfArg); err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
			}
			policy := app.PolicyFrom(cfg)
			return printJSON(cmd, map[string]interface{}{
				"due_date":     due.Format(time.DateOnly),
				"as_of":        asOf.Format(time.DateOnly),
				"amount":       amount.StringFixed(2),
				"days_overdue": payments.DaysOverdue(due, asOf),
				"late_fee":     payments.CalculateLateFee(policy, due, asOf, amount).StringFixed(2),
			})
		},
	}
	cmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().String("amount", "", "payment amount")
	cmd.Flags().String("as-of", "", "evaluate at this date instead of today")
	_ = cmd.MarkFlagRequired("due")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Issue a session for local development and print its cookie",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("session issuing is disabled in production")
			}
			if cfg.RedisURL == "" {
				return errors.New("REDIS_URL is not configured")
			}
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return err
			}
			rdb := redis.NewClient(opt)
			defer rdb.Close()
			return issueSession(cmd, rdb)
		},
	}
	cmd.Flags().String("user-id", "", "user id recorded as the audit actor")
	cmd.Flags().String("role", constants.Ops, "admin, owner, tenant or ops")
	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("email", "", "email")
	cmd.Flags().Duration("ttl", 24*time.Hour, "session lifetime")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func issueSession(cmd *cobra.Command, rdb *redis.Client) error {
	userID, _ := cmd.Flags().GetString("user-id")
	role, _ := cmd.Flags().GetString("role")
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if !constants.IsValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}
	id, err := middleware.StoreSession(cmd.Context(), rdb, middleware.SessionUser{UserID: userID, Fullname: name, Email: email, Role: role}, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", middleware.SessionCookieName, id)
	return nil
}
