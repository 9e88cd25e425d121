// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/auth"
	"github.com/dangerclosesec/qualitrack/internal/config"
	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/email"
	"github.com/dangerclosesec/qualitrack/internal/email/mailer"
	"github.com/dangerclosesec/qualitrack/internal/handler"
	"github.com/dangerclosesec/qualitrack/internal/metrics"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/dangerclosesec/qualitrack/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options overrides collaborators that New would otherwise build from the
// configuration.
type Options struct {
	Registerer prometheus.Registerer
	Clock      domain.Clock
	Files      storage.FileStore
	Notifier   service.Notifier
	Renderer   service.Renderer
	Hasher     *auth.PasswordHasher
}

// App holds the wired service graph shared by the API server and qualictl.
type App struct {
	DB            *gorm.DB
	Metrics       *metrics.Metrics
	Tokens        *auth.TokenManager
	Organizations *repository.OrganizationRepository

	Indicators  *service.IndicatorService
	Documents   *service.DocumentService
	Actions     *service.ActionService
	Tasks       *service.TaskService
	Audits      *service.AuditService
	BPFs        *service.BPFService
	Statistics  *service.StatisticsService
	Invitations *service.InvitationService
	Sessions    *service.SessionService
	Bootstrap   *service.BootstrapService
}

func New(db *gorm.DB, cfg *config.Config, opts Options) (*App, error) {
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}
	if opts.Hasher == nil {
		opts.Hasher = auth.NewPasswordHasher()
	}
	if opts.Files == nil {
		files, err := storage.NewLocalStore(cfg.Storage.Root, cfg.Storage.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("setting up file storage: %w", err)
		}
		opts.Files = files
	}
	if opts.Notifier == nil {
		notifier, err := newNotifier(cfg)
		if err != nil {
			return nil, err
		}
		if notifier != nil {
			opts.Notifier = notifier
		}
	}

	filePolicy, err := config.LoadCompletionPolicy(cfg.CompletionPolicyFile)
	if err != nil {
		return nil, err
	}
	evidence, guidance := filePolicy.Weights()
	policy := service.CompletionPolicy{EvidenceWeight: evidence, GuidanceWeight: guidance}

	m := metrics.New(opts.Registerer)
	tx := repository.NewTxManager(db)

	// Repositories
	indicatorRepo := repository.NewIndicatorRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	actionRepo := repository.NewActionRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	bpfRepo := repository.NewBPFRepository(db)
	statRepo := repository.NewStatisticRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryPeriod)
	tasks := service.NewTaskService(tx, taskRepo, opts.Clock)

	return &App{
		DB:            db,
		Metrics:       m,
		Tokens:        tokens,
		Organizations: orgRepo,

		Indicators: service.NewIndicatorService(indicatorRepo, documentRepo, opts.Clock),
		Documents:  service.NewDocumentService(tx, documentRepo, indicatorRepo, opts.Files, policy, opts.Clock, m),
		Actions:    service.NewActionService(tx, actionRepo, opts.Clock),
		Tasks:      tasks,
		Audits:     service.NewAuditService(tx, auditRepo, opts.Files, opts.Clock, m),
		BPFs:       service.NewBPFService(tx, bpfRepo, opts.Files, opts.Renderer, opts.Clock, m),
		Statistics: service.NewStatisticsService(statRepo, indicatorRepo, documentRepo, actionRepo, taskRepo, auditRepo, invitationRepo, opts.Clock, m),
		Invitations: service.NewInvitationService(tx, invitationRepo, indicatorRepo, userRepo, opts.Notifier, opts.Hasher, opts.Clock,
			service.InvitationConfig{TTL: cfg.Invitation.TTL, BaseURL: cfg.BaseURL}, m),
		Sessions:  service.NewSessionService(userRepo, orgRepo, opts.Hasher, tokens, cfg.JWT.ExpiryPeriod, opts.Clock),
		Bootstrap: service.NewBootstrapService(tx, indicatorRepo, actionRepo, tasks, m),
	}, nil
}

// Handlers builds the HTTP handlers over the service graph.
func (a *App) Handlers() handler.Handlers {
	return handler.Handlers{
		Indicators:  handler.NewIndicatorHandler(a.Indicators),
		Documents:   handler.NewDocumentHandler(a.Documents),
		Actions:     handler.NewActionHandler(a.Actions),
		Tasks:       handler.NewTaskHandler(a.Tasks),
		Audits:      handler.NewAuditHandler(a.Audits),
		BPFs:        handler.NewBPFHandler(a.BPFs),
		Statistics:  handler.NewStatisticsHandler(a.Statistics),
		Invitations: handler.NewInvitationHandler(a.Invitations),
		Sessions:    handler.NewSessionHandler(a.Sessions),
		Bootstrap:   handler.NewBootstrapHandler(a.Bootstrap),
	}
}

// newNotifier returns nil when no email provider is configured.
func newNotifier(cfg *config.Config) (*mailer.InvitationMailer, error) {
	if cfg.Email.Provider == "" {
		slog.Warn("no email provider configured, invitation mail disabled")
		return nil, nil
	}
	svc, err := email.NewEmailService(email.Config{
		Provider:       email.Provider(cfg.Email.Provider),
		SendgridAPIKey: cfg.Sendgrid.APIKey,
		From:           cfg.Email.From,
		FromName:       cfg.Email.FromName,
		SMTP: email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("initializing email service: %w", err)
	}
	return mailer.NewInvitationMailer(svc), nil
}

// OpenDatabase connects to postgres with the pool settings used by every
// binary.
func OpenDatabase(cfg *config.Config, level logger.LogLevel) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}
