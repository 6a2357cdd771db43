package router

import (
	"github.com/notely-app/notely-api/internal/application"
	"github.com/notely-app/notely-api/internal/container"
	"github.com/notely-app/notely-api/internal/domain/otp"
	pginfra "github.com/notely-app/notely-api/internal/infrastructure/postgres"
	handlers "github.com/notely-app/notely-api/internal/interface/http"
	"github.com/notely-app/notely-api/internal/router/modules"
)

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	userRepo := pginfra.NewUserRepository(container.GetPGPool())
	noteRepo := pginfra.NewNoteRepository(container.GetPGPool())

	// A nil *RabbitPublisher must not end up inside the Publisher interface.
	var pub application.Publisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}

	authSvc := application.NewAuthService(
		userRepo,
		otp.NewEngine(cfg.OTPTTL),
		container.GetJWT(),
		pub,
		logger,
		cfg.AppName,
	)
	linker := application.NewLinker(userRepo, logger)
	noteSvc := application.NewNoteService(noteRepo, logger, container.GetES(), cfg.ESNotesIndex)

	authHandler := handlers.NewAuthHandler(authSvc, logger)
	googleHandler := handlers.NewGoogleHandler(
		container.GetGoogle(),
		linker,
		authSvc,
		container.GetRedis(),
		logger,
		cfg.FrontendURL,
	)
	noteHandler := handlers.NewNoteHandler(noteSvc, logger)
	healthHandler := handlers.NewHealthHandler(cfg.Env, cfg.Version, logger)

	r.Add(modules.NewAuthModule(authHandler, googleHandler, userRepo, container.GetJWT()))
	r.Add(modules.NewNoteModule(noteHandler, userRepo, container.GetJWT()))
	r.Add(modules.NewHealthModule(healthHandler))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
