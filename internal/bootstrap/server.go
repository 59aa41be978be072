package bootstrap

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/gocatalog/internal/api"
	"github.com/jonesrussell/gocatalog/internal/citations"
	"github.com/jonesrussell/gocatalog/internal/classify"
	"github.com/jonesrussell/gocatalog/internal/config"
	"github.com/jonesrussell/gocatalog/internal/database"
	"github.com/jonesrussell/gocatalog/internal/enrich"
	"github.com/jonesrussell/gocatalog/internal/events"
	"github.com/jonesrussell/gocatalog/internal/handlers"
	"github.com/jonesrussell/gocatalog/internal/importer"
	"github.com/jonesrussell/gocatalog/internal/ingest"
	"github.com/jonesrussell/gocatalog/internal/jobs"
	"github.com/jonesrussell/gocatalog/internal/linkrot"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/metadata"
	"github.com/jonesrussell/gocatalog/internal/promotion"
	"github.com/jonesrussell/gocatalog/internal/ranking"
	"github.com/jonesrussell/gocatalog/internal/repository"
	"github.com/jonesrussell/gocatalog/internal/scoring"
	"github.com/jonesrussell/gocatalog/internal/worker"
)

// Services is the fully wired service graph behind the HTTP API and the
// background jobs.
type Services struct {
	Enricher  *enrich.Enricher
	Manager   *promotion.Manager
	Monitor   *linkrot.Monitor
	Scheduler *jobs.Scheduler
	Router    *gin.Engine
}

// SetupServices wires repositories, domain services, handlers, and the job
// scheduler against one database connection.
func SetupServices(
	cfg *config.Config,
	db *database.DB,
	publisher *events.Publisher,
	log logger.Logger,
) (*Services, error) {
	inboxRepo := repository.NewInboxRepository(db.DB(), log)
	stagedRepo := repository.NewStagedRepository(db.DB(), log)
	catalogRepo := repository.NewCatalogRepository(db.DB(), log)
	domainRepo := repository.NewKnownDomainRepository(db.DB(), log)
	linkRepo := repository.NewCitationLinkRepository(db.DB(), log)

	scoringCfg := scoring.NewConfig(cfg.Decay)
	classifier := classify.NewClassifier(domainRepo, log)
	fetcher := metadata.NewFetcher(cfg.Enrich.FetchTimeout, log)

	pool, err := worker.NewPool(cfg.Enrich.Workers)
	if err != nil {
		return nil, err
	}

	ingestSvc := ingest.NewService(inboxRepo, log)
	enricher := enrich.NewEnricher(
		enrich.Config{BatchSize: cfg.Enrich.BatchSize, FetchTimeout: cfg.Enrich.FetchTimeout},
		inboxRepo, stagedRepo, fetcher, scoringCfg, pool, log,
	)
	manager := promotion.NewManager(cfg.Promotion, scoringCfg, stagedRepo, catalogRepo, classifier, publisher, log)
	monitor := linkrot.NewMonitor(cfg.LinkRot, catalogRepo, fetcher, pool, publisher, log)
	citationSvc := citations.NewService(linkRepo, catalogRepo, log)
	rankingSvc := ranking.NewService(catalogRepo, stagedRepo, log)
	excelImporter := importer.NewExcelImporter(manager, log)

	scheduler := jobs.NewScheduler(cfg.Jobs, enricher, manager, monitor, log)

	router := api.NewRouter(cfg.Server, api.Handlers{
		Capture:  handlers.NewCaptureHandler(ingestSvc, inboxRepo, log),
		Staged:   handlers.NewStagedHandler(stagedRepo, log),
		Catalog:  handlers.NewCatalogHandler(catalogRepo, manager, citationSvc, log),
		Ranking:  handlers.NewRankingHandler(rankingSvc, log),
		Citation: handlers.NewCitationHandler(citationSvc, log),
		Admin:    handlers.NewAdminHandler(enricher, manager, monitor, excelImporter, domainRepo, log),
	}, log)

	return &Services{
		Enricher:  enricher,
		Manager:   manager,
		Monitor:   monitor,
		Scheduler: scheduler,
		Router:    router,
	}, nil
}
