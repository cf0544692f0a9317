package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lessonarchiver/internal/handlers"
	"lessonarchiver/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Auth      service.AuthService
	Files     service.FileService
	Notes     service.NoteService
	Tags      service.TagService
	Cabinets  service.CabinetService
	Materials service.MaterialService

	HealthChecks []handlers.HealthCheck
	PendingTasks func(ctx context.Context) (int64, error)
	CORSOrigins  []string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(trimOrigins(deps.CORSOrigins)))

	authHandler := handlers.NewAuthHandler(deps.Auth)
	fileHandler := handlers.NewFileHandler(deps.Files)
	noteHandler := handlers.NewNoteHandler(deps.Notes)
	tagHandler := handlers.NewTagHandler(deps.Tags)
	cabinetHandler := handlers.NewCabinetHandler(deps.Cabinets)
	materialHandler := handlers.NewMaterialHandler(deps.Materials)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.HealthChecks, deps.PendingTasks))

	r.Get("/auth/renew", authHandler.Renew)
	r.Get("/auth/{provider}", authHandler.Login)
	r.Get("/file/grant/{grantId}", fileHandler.OpenGrant)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(deps.Auth))

		r.Get("/me", authHandler.Me)

		r.Post("/file/upload", fileHandler.Upload)
		r.Get("/files", fileHandler.List)
		r.Get("/file/{id}", fileHandler.Download)
		r.Get("/file/{id}/info", fileHandler.Info)
		r.Put("/file/{id}", fileHandler.Update)
		r.Post("/file/grant/{id}", fileHandler.CreateGrant)

		r.Post("/note", noteHandler.Create)
		r.Get("/notes", noteHandler.List)
		r.Get("/note/{id}", noteHandler.Get)
		r.Get("/note/{id}/html", noteHandler.HTML)
		r.Put("/note/{id}", noteHandler.Update)
		r.Delete("/note/{id}", noteHandler.Delete)

		r.Get("/tags", tagHandler.List)
		r.Post("/tag", tagHandler.Create)
		r.Delete("/tag/{id}", tagHandler.Delete)

		r.Get("/cabinet", cabinetHandler.Roots)
		r.Post("/cabinet", cabinetHandler.Create)
		r.Get("/cabinet/{id}", cabinetHandler.Get)
		r.Get("/cabinet/{id}/children", cabinetHandler.Children)
		r.Get("/cabinet/{id}/materials", cabinetHandler.Materials)
		r.Put("/cabinet/{id}", cabinetHandler.Update)
		r.Delete("/cabinet/{id}", cabinetHandler.Delete)

		r.Get("/materials", materialHandler.List)
		r.Get("/materials/search", materialHandler.Search)
	})

	return r
}
