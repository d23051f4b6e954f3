package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/appointment"
	v1 "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/server"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/service"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/notify"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/payment"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/tracer"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "clinicbook",
		Short:        "Clinic booking API: schedules, appointments and medical records",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := database.Connect(cfg.Database, log, nil)
			if err != nil {
				return err
			}
			return database.Migrate(db, log)
		},
	}
}

// tokenCmd prints a token pair for an existing user, or rotates a refresh
// token. Operators use it to call the API before an identity provider is
// wired in front of it.
func tokenCmd() *cobra.Command {
	var userID, refresh string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access/refresh token pair for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (userID == "") == (refresh == "") {
				return errors.New("exactly one of --user or --refresh is required")
			}
			var id uuid.UUID
			if userID != "" {
				var err error
				if id, err = uuid.Parse(userID); err != nil {
					return fmt.Errorf("--user must be a UUID: %w", err)
				}
			}
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := database.Connect(cfg.Database, log, nil)
			if err != nil {
				return err
			}
			svc := service.NewAuthService(repository.NewUserRepository(db), auth.NewJWTManager(cfg.JWT), log)

			var pair *domain.TokenPair
			if refresh != "" {
				pair, err = svc.RefreshToken(cmd.Context(), refresh)
			} else {
				pair, err = svc.IssueToken(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pair)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id to issue the token for")
	cmd.Flags().StringVar(&refresh, "refresh", "", "Refresh token to exchange for a new pair")
	cmd.MarkFlagsMutuallyExclusive("user", "refresh")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, log, nil
}

func runServer(migrate bool) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App.Version)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	collector := metrics.NewCollector(cfg.App.Name, prometheus.DefaultRegisterer)

	db, err := database.Connect(cfg.Database, log, collector)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying sql.DB: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()
	log.Info("connected to database", zap.String("driver", cfg.Database.Driver))

	if migrate {
		if err := database.Migrate(db, log); err != nil {
			return err
		}
	}

	// Repositories
	var (
		tx           = repository.NewTransactor(db)
		slots        = repository.NewSlotRepository(db)
		appointments = repository.NewAppointmentRepository(db)
		doctors      = repository.NewDoctorRepository(db)
		records      = repository.NewMedicalRecordRepository(db)
		medicines    = repository.NewMedicineRepository(db)
		chats        = repository.NewChatRepository(db)
		users        = repository.NewUserRepository(db)
	)

	// Collaborators
	notifier := notify.New(cfg.Notify, log)
	if closer, ok := notifier.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Warn("closing notifier", zap.Error(err))
			}
		}()
	}
	notifications := service.NewNotificationService(users, notifier, collector, log)
	defer notifications.Shutdown()
	gateway := payment.NewPayOSClient(cfg.Payment, log)

	// Services
	auditSvc := service.NewAuditService(repository.NewAuditRepository(db), collector, log)
	defer auditSvc.Shutdown()

	locks := service.NewDoctorLocks()
	recordSvc := service.NewMedicalRecordService(records, medicines, gateway, tx, nil, auditSvc, collector, log)
	scheduleSvc := service.NewScheduleService(slots, doctors, appointments, locks, auditSvc, log)
	appointmentSvc := service.NewAppointmentService(service.AppointmentServiceDeps{
		Appointments: appointments,
		Slots:        slots,
		Doctors:      doctors,
		Users:        users,
		Records:      recordSvc,
		Completion:   service.NewCompletionDispatcher(chats, collector, log),
		Tx:           tx,
		Locks:        locks,
		Notifier:     notifications,
		AuditSvc:     auditSvc,
		Metrics:      collector,
		Log:          log,
		DefaultMode:  appointment.CreationMode(cfg.Booking.DefaultCreationMode),
	})

	tokens := auth.NewJWTManager(cfg.JWT)
	authSvc := service.NewAuthService(users, tokens, log)

	router, err := server.NewRouter(server.RouterDeps{
		Config:  cfg,
		Log:     log,
		Metrics: collector,
		Tokens:  tokens,
		Handlers: &v1.Handlers{
			Auth:           v1.NewAuthHandler(authSvc),
			Appointments:   v1.NewAppointmentHandler(appointmentSvc),
			Schedules:      v1.NewScheduleHandler(scheduleSvc),
			MedicalRecords: v1.NewMedicalRecordHandler(recordSvc),
		},
		DB: sqlDB,
	})
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, router, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return errors.New("http server stopped unexpectedly")
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
