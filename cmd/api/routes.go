package main

import (
	"database/sql"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"participa/internal/auth"
	"participa/internal/config"
	"participa/internal/handlers"
	"participa/internal/middleware"
	"participa/internal/models"
	"participa/internal/repository"
	"participa/internal/scheduler"
	"participa/internal/service"
)

// application holds the wired handlers and middleware
type application struct {
	authMw      *middleware.AuthMiddleware
	auditMw     *middleware.AuditMiddleware
	corsMw      *middleware.CORSMiddleware
	rateLimiter *middleware.RateLimiter
	scheduler   *scheduler.Scheduler

	health       *handlers.HealthHandler
	votes        *handlers.VoteHandler
	proposals    *handlers.ProposalHandler
	processes    *handlers.ProcessHandler
	discussions  *handlers.DiscussionHandler
	budgets      *handlers.BudgetHandler
	auditHandler *handlers.AuditHandler
}

// newApplication wires repositories, services and handlers around db
func newApplication(cfg *config.Config, db *sql.DB, health handlers.HealthChecker, authService *auth.Service) (*application, error) {
	// Initialize repositories
	processRepo := repository.NewProcessRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Initialize services
	auditService, err := service.NewAuditService(auditRepo, cfg.Audit.IPHashKey)
	if err != nil {
		return nil, err
	}
	participationService := service.NewParticipationService(participationRepo)
	voteService := service.NewVoteService(db, voteRepo, proposalRepo, participationService)
	budgetService := service.NewBudgetService(db, budgetRepo)
	processService := service.NewProcessService(processRepo, participationService)
	proposalService := service.NewProposalService(db, proposalRepo, processRepo, participationService)
	discussionService := service.NewDiscussionService(db, discussionRepo, proposalRepo, processRepo, participationService)

	return &application{
		authMw:      middleware.NewAuthMiddleware(authService),
		auditMw:     middleware.NewAuditMiddleware(auditService),
		corsMw:      middleware.NewCORSMiddleware(&cfg.CORS),
		rateLimiter: middleware.NewRateLimiter(&cfg.RateLimit),
		scheduler:   scheduler.NewScheduler(processService, &cfg.Scheduler),

		health:       handlers.NewHealthHandler(health, cfg.App),
		votes:        handlers.NewVoteHandler(voteService),
		proposals:    handlers.NewProposalHandler(proposalService),
		processes:    handlers.NewProcessHandler(processService, participationService),
		discussions:  handlers.NewDiscussionHandler(discussionService),
		budgets:      handlers.NewBudgetHandler(budgetService),
		auditHandler: handlers.NewAuditHandler(auditService),
	}, nil
}

// routes builds the router with global middleware applied
func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	// authenticated wraps h for any citizen
	authenticated := func(h http.HandlerFunc) http.Handler {
		return app.authMw.Authenticate(h)
	}
	// audited wraps h for any citizen and records action on success
	audited := func(action string, h http.HandlerFunc) http.Handler {
		return app.authMw.Authenticate(app.auditMw.Log(action)(h))
	}
	// restricted additionally requires role
	restricted := func(role models.Role, action string, h http.HandlerFunc) http.Handler {
		var next http.Handler = h
		if action != "" {
			next = app.auditMw.Log(action)(next)
		}
		return app.authMw.Authenticate(middleware.RequireRole(role)(next))
	}

	// Vote ledger
	mux.Handle("POST /api/v1/votes", audited(service.ActionVoteCast, app.votes.CastVote))
	mux.Handle("PUT /api/v1/votes", audited(service.ActionVoteChanged, app.votes.ChangeVote))
	mux.Handle("GET /api/v1/proposals/{id}/votes", authenticated(app.votes.CountVotes))
	mux.Handle("GET /api/v1/proposals/{id}/my-vote", authenticated(app.votes.GetMyVote))

	// Proposals
	mux.Handle("POST /api/v1/proposals", audited(service.ActionProposalCreated, app.proposals.CreateProposal))
	mux.Handle("GET /api/v1/proposals/{id}", authenticated(app.proposals.GetProposal))
	mux.Handle("PUT /api/v1/proposals/{id}/status",
		restricted(models.RoleOrganizer, service.ActionProposalStatus, app.proposals.UpdateProposalStatus))

	// Processes
	mux.Handle("GET /api/v1/processes", authenticated(app.processes.ListProcesses))
	mux.Handle("GET /api/v1/processes/{id}", authenticated(app.processes.GetProcess))
	mux.Handle("POST /api/v1/processes",
		restricted(models.RoleOrganizer, service.ActionProcessCreated, app.processes.CreateProcess))
	mux.Handle("PUT /api/v1/processes/{id}/status",
		restricted(models.RoleOrganizer, service.ActionProcessStatus, app.processes.UpdateProcessStatus))
	mux.Handle("GET /api/v1/processes/{id}/proposals", authenticated(app.proposals.ListProcessProposals))
	mux.Handle("GET /api/v1/processes/{id}/discussions", authenticated(app.discussions.ListProcessDiscussions))
	mux.Handle("GET /api/v1/processes/{id}/participation", authenticated(app.processes.GetParticipationSummary))
	mux.Handle("GET /api/v1/processes/{id}/my-participation", authenticated(app.processes.GetMyParticipation))

	// Discussions and comments
	mux.Handle("POST /api/v1/discussions", audited(service.ActionDiscussionCreated, app.discussions.CreateDiscussion))
	mux.Handle("POST /api/v1/comments", audited(service.ActionCommentCreated, app.discussions.AddComment))
	mux.Handle("GET /api/v1/comments", authenticated(app.discussions.ListComments))

	// Budgets
	mux.Handle("GET /api/v1/budgets", authenticated(app.budgets.ListBudgets))
	mux.Handle("GET /api/v1/budgets/{id}", authenticated(app.budgets.GetBudget))
	mux.Handle("GET /api/v1/budgets/{id}/summary", authenticated(app.budgets.GetBudgetSummary))
	mux.Handle("GET /api/v1/budgets/{id}/my-allocation", authenticated(app.budgets.GetMyAllocation))
	mux.Handle("POST /api/v1/budget-votes", audited(service.ActionAllocationSubmit, app.budgets.SubmitAllocation))
	mux.Handle("POST /api/v1/budgets",
		restricted(models.RoleOrganizer, service.ActionBudgetCreated, app.budgets.CreateBudget))
	mux.Handle("POST /api/v1/budgets/{id}/categories",
		restricted(models.RoleOrganizer, service.ActionBudgetCategory, app.budgets.AddCategory))
	mux.Handle("PUT /api/v1/budgets/{id}/status",
		restricted(models.RoleOrganizer, service.ActionBudgetStatus, app.budgets.UpdateBudgetStatus))

	// Admin
	mux.Handle("GET /api/v1/admin/audit-logs", restricted(models.RoleAdmin, "", app.auditHandler.ListAuditLogs))

	// Health check endpoint
	mux.HandleFunc("GET /health", app.health.Health)

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	return middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			app.corsMw.Handler(
				app.rateLimiter.Limit(mux),
			),
		),
	)
}
