package http

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	keyusecases "github.com/orris-inc/keyhub/internal/application/key/usecases"
	notificationusecases "github.com/orris-inc/keyhub/internal/application/notification/usecases"
	packusecases "github.com/orris-inc/keyhub/internal/application/pack/usecases"
	provisioningusecases "github.com/orris-inc/keyhub/internal/application/provisioning/usecases"
	violationusecases "github.com/orris-inc/keyhub/internal/application/violation/usecases"
	"github.com/orris-inc/keyhub/internal/domain/key"
	"github.com/orris-inc/keyhub/internal/domain/pack"
	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/domain/reseller"
	"github.com/orris-inc/keyhub/internal/domain/server"
	"github.com/orris-inc/keyhub/internal/domain/violation"
	"github.com/orris-inc/keyhub/internal/infrastructure/cache"
	"github.com/orris-inc/keyhub/internal/infrastructure/config"
	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider"
	"github.com/orris-inc/keyhub/internal/infrastructure/provider/sshexec"
	"github.com/orris-inc/keyhub/internal/infrastructure/ratelimit"
	"github.com/orris-inc/keyhub/internal/infrastructure/repository"
	"github.com/orris-inc/keyhub/internal/infrastructure/telegram"
	"github.com/orris-inc/keyhub/internal/interfaces/http/handlers"
	"github.com/orris-inc/keyhub/internal/shared/db"
	"github.com/orris-inc/keyhub/internal/shared/logger"
	"github.com/orris-inc/keyhub/internal/shared/services/markdown"
)

// repositories holds all repository instances used by the application.
type repositories struct {
	keyRepo        key.Repository
	packRepo       pack.PackRepository
	batchRepo      pack.BatchRepository
	resellerRepo   reseller.Repository
	panelRepo      panel.Repository
	serverUserRepo panel.ServerUserRepository
	serverRepo     server.Repository
	locationRepo   server.LocationRepository
	violationRepo  violation.Repository
}

func newRepositories(gdb *gorm.DB, log logger.Interface) *repositories {
	return &repositories{
		keyRepo:        repository.NewKeyRepository(gdb, log),
		packRepo:       repository.NewPackRepository(gdb, log),
		batchRepo:      repository.NewBatchRepository(gdb, log),
		resellerRepo:   repository.NewResellerRepository(gdb, log),
		panelRepo:      repository.NewPanelRepository(gdb, log),
		serverUserRepo: repository.NewServerUserRepository(gdb, log),
		serverRepo:     repository.NewServerRepository(gdb, log),
		locationRepo:   repository.NewLocationRepository(gdb, log),
		violationRepo:  repository.NewViolationRepository(gdb, log),
	}
}

// infrastructure holds the cross-cutting clients the use cases depend on.
type infrastructure struct {
	locker    keyusecases.KeyLocker
	dedup     violationusecases.ReportDeduplicator
	limiter   ratelimit.Limiter
	ssh       *sshexec.Client
	providers *provider.Registry
	sender    *telegram.Sender
	renderer  *telegram.Renderer
}

// newInfrastructure uses Redis for locks and dedup when it is configured and
// falls back to in-process implementations otherwise. Report rate limiting
// needs Redis and is off without it.
func newInfrastructure(cfg *config.Config, rdb *redis.Client, m *metrics.Metrics, log logger.Interface) (*infrastructure, error) {
	infra := &infrastructure{
		ssh:      sshexec.New(cfg.Providers.SSH),
		sender:   telegram.NewSender(cfg.Telegram, log.Named("telegram")),
		renderer: telegram.NewRenderer(markdown.NewService(), cfg.Telegram.DefaultLang),
	}
	providers, err := provider.NewRegistryFromConfig(cfg.Providers, cfg.Panels, infra.ssh, m)
	if err != nil {
		return nil, err
	}
	infra.providers = providers

	if rdb != nil {
		infra.locker = cache.NewRedisKeyLocker(rdb, cfg.Activation.LockTTL, cfg.Activation.LockWait, log)
		infra.dedup = cache.NewRedisReportDeduplicator(rdb)
		infra.limiter = ratelimit.NewRedisLimiter(rdb)
	} else {
		infra.locker = cache.NewLocalKeyLocker(cfg.Activation.LockWait)
		infra.dedup = cache.NewMemoryReportDeduplicator()
	}
	return infra, nil
}

type useCases struct {
	panels *provisioningusecases.PanelService

	reconcileKey *keyusecases.ReconcileKeyExpiryUseCase
	activateKey  *keyusecases.ActivateKeyUseCase
	getKey       *keyusecases.GetKeyUseCase
	transferKey  *keyusecases.TransferKeyUseCase
	expireKeys   *keyusecases.ExpireKeysUseCase

	createBatch   *packusecases.CreateBatchUseCase
	completeBatch *packusecases.CompleteBatchPaymentUseCase
	expireBatches *packusecases.ExpireUnpaidBatchesUseCase

	reportViolation    *violationusecases.ReportViolationUseCase
	ignoreViolation    *violationusecases.IgnoreViolationUseCase
	checkConnections   *violationusecases.CheckConnectionsUseCase
	retryNotifications *violationusecases.RetryNotificationsUseCase

	configureServer  *provisioningusecases.ConfigureServerUseCase
	checkServer      *provisioningusecases.CheckServerStatusUseCase
	setPanel         *provisioningusecases.SetPanelUseCase
	deleteServer     *provisioningusecases.DeleteServerUseCase
	reconcileServers *provisioningusecases.ReconcileServersUseCase
}

func (c *Container) initUseCases() {
	cfg := c.cfg
	r := c.repos
	infra := c.infra
	txManager := db.NewTransactionManager(c.db)

	ucs := &useCases{}

	// Provisioning
	ucs.panels = provisioningusecases.NewPanelService(
		infra.providers,
		r.panelRepo,
		r.serverUserRepo,
		r.keyRepo,
		txManager,
		cfg.Panels.TokenMargin,
		c.log.Named("panels"),
	)
	dnsManager := provisioningusecases.NewDNSRecordManager(infra.providers.DNS(), c.log)
	ucs.configureServer = provisioningusecases.NewConfigureServerUseCase(infra.providers, r.serverRepo, r.locationRepo, c.log)
	ucs.checkServer = provisioningusecases.NewCheckServerStatusUseCase(infra.providers, r.serverRepo, dnsManager, c.log)
	ucs.setPanel = provisioningusecases.NewSetPanelUseCase(infra.providers, r.serverRepo, r.panelRepo, infra.ssh, ucs.panels, c.log)
	ucs.deleteServer = provisioningusecases.NewDeleteServerUseCase(infra.providers, r.serverRepo, r.panelRepo, dnsManager, c.log)
	ucs.reconcileServers = provisioningusecases.NewReconcileServersUseCase(r.serverRepo, r.panelRepo, ucs.checkServer, ucs.panels, c.log)

	// Keys
	ucs.reconcileKey = keyusecases.NewReconcileKeyExpiryUseCase(r.keyRepo, infra.locker, ucs.panels, c.metrics, c.log)
	ucs.activateKey = keyusecases.NewActivateKeyUseCase(
		r.keyRepo,
		r.serverUserRepo,
		ucs.panels,
		infra.locker,
		ucs.reconcileKey,
		txManager,
		c.metrics,
		c.log,
	)
	ucs.getKey = keyusecases.NewGetKeyUseCase(r.keyRepo, ucs.reconcileKey, ucs.panels, c.log)
	ucs.transferKey = keyusecases.NewTransferKeyUseCase(r.keyRepo, infra.locker, ucs.reconcileKey, c.log)
	ucs.expireKeys = keyusecases.NewExpireKeysUseCase(r.keyRepo, ucs.reconcileKey, c.log)

	// Batches
	ucs.createBatch = packusecases.NewCreateBatchUseCase(r.packRepo, r.batchRepo, r.resellerRepo, cfg.Batch.PaymentWindow, c.log)
	ucs.completeBatch = packusecases.NewCompleteBatchPaymentUseCase(r.packRepo, r.batchRepo, r.keyRepo, txManager, c.metrics, c.log)
	ucs.expireBatches = packusecases.NewExpireUnpaidBatchesUseCase(r.batchRepo, c.log)

	// Violations
	dispatcher := notificationusecases.NewDispatcher(r.batchRepo, r.resellerRepo, infra.renderer, infra.sender, c.metrics, c.log.Named("notifications"))
	notifier := violationusecases.NewViolationNotifier(dispatcher, r.violationRepo, cfg.Violation.SupportURL, c.log)
	replacer := violationusecases.NewReplaceKeyUseCase(r.keyRepo, r.violationRepo, infra.locker, ucs.activateKey, ucs.panels, c.metrics, c.log)
	recorder := violationusecases.NewRecordViolationUseCase(
		r.violationRepo,
		ucs.reconcileKey,
		replacer,
		notifier,
		infra.dedup,
		cfg.Violation.Cooldown,
		txManager,
		c.metrics,
		c.log,
	)
	ucs.reportViolation = violationusecases.NewReportViolationUseCase(r.serverUserRepo, r.keyRepo, recorder, c.log)
	ucs.ignoreViolation = violationusecases.NewIgnoreViolationUseCase(r.violationRepo, c.log)
	ucs.checkConnections = violationusecases.NewCheckConnectionsUseCase(r.keyRepo, ucs.panels, recorder, c.log)
	ucs.retryNotifications = violationusecases.NewRetryNotificationsUseCase(
		r.violationRepo,
		r.keyRepo,
		ucs.panels,
		notifier,
		cfg.Violation.MaxNotificationRetries,
		c.log,
	)

	c.ucs = ucs
}

type allHandlers struct {
	key       *handlers.KeyHandler
	batch     *handlers.BatchHandler
	violation *handlers.ViolationHandler
	server    *handlers.ServerHandler
}

func (c *Container) initHandlers() {
	ucs := c.ucs
	c.hdlrs = &allHandlers{
		key:       handlers.NewKeyHandler(ucs.getKey, ucs.activateKey, ucs.transferKey, c.log),
		batch:     handlers.NewBatchHandler(ucs.createBatch, ucs.completeBatch, c.log),
		violation: handlers.NewViolationHandler(ucs.reportViolation, ucs.ignoreViolation, c.log),
		server: handlers.NewServerHandler(
			ucs.configureServer,
			ucs.checkServer,
			ucs.setPanel,
			ucs.deleteServer,
			ucs.panels,
			c.log,
		),
	}
}
