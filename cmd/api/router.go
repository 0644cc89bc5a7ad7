package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/timetable-api/internal/accounts"
	"github.com/crucial707/timetable-api/internal/audit"
	"github.com/crucial707/timetable-api/internal/catalog"
	"github.com/crucial707/timetable-api/internal/config"
	"github.com/crucial707/timetable-api/internal/handlers"
	"github.com/crucial707/timetable-api/internal/middleware"
	"github.com/crucial707/timetable-api/internal/models"
)

// services wires the domain layer over one backend.
type services struct {
	recorder *audit.Recorder
	accounts *accounts.Service
	catalog  *catalog.Service
	ping     func(context.Context) error
}

func newServices(b *backend) services {
	rec := audit.NewRecorder(b.audit, b.users)
	return services{
		recorder: rec,
		accounts: accounts.NewService(b.users, b.departments, rec),
		catalog:  catalog.NewService(b.subjects, b.departments, b.users, rec),
		ping:     b.ping,
	}
}

func newRouter(cfg config.Config, svc services) http.Handler {
	secret := []byte(cfg.JWTSecret)

	authHandler := &handlers.AuthHandler{
		Accounts: svc.accounts,
		Secret:   secret,
		TokenTTL: time.Duration(cfg.JWTExpireHours) * time.Hour,
	}
	userHandler := &handlers.UserHandler{Accounts: svc.accounts}
	profileHandler := &handlers.ProfileHandler{Accounts: svc.accounts}
	departmentHandler := &handlers.DepartmentHandler{Catalog: svc.catalog}
	subjectHandler := &handlers.SubjectHandler{Catalog: svc.catalog}
	auditHandler := &handlers.AuditHandler{Audit: svc.recorder}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.RequestLog)
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled()))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(cfg.MaxBodyBytes))
	r.Use(middleware.Provenance)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := svc.ping(ctx); err != nil {
			handlers.JSONError(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authenticate := middleware.JWTMiddleware(secret, svc.accounts)

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.AuthRateLimiter().Middleware)
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(authenticate).Post("/logout", authHandler.Logout)
		r.With(authenticate).Post("/refresh", authHandler.Refresh)
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/profile", profileHandler.GetProfile)
		r.Put("/profile", profileHandler.UpdateProfile)
		r.Post("/profile/picture", profileHandler.UpdatePicture)
		r.Post("/profile/change-password", profileHandler.ChangePassword)

		r.Get("/departments", departmentHandler.ListDepartments)
		r.Get("/departments/{id}", departmentHandler.GetDepartment)
		r.Get("/subjects", subjectHandler.ListSubjects)
		r.Get("/subjects/{id}", subjectHandler.GetSubject)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleCoordinator))
			r.Post("/departments", departmentHandler.CreateDepartment)
			r.Put("/departments/{id}", departmentHandler.UpdateDepartment)
			r.Delete("/departments/{id}", departmentHandler.DeleteDepartment)
			r.Post("/subjects", subjectHandler.CreateSubject)
			r.Put("/subjects/{id}", subjectHandler.UpdateSubject)
			r.Delete("/subjects/{id}", subjectHandler.DeleteSubject)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Get("/users", userHandler.ListUsers)
			r.Post("/users", userHandler.CreateUser)
			r.Get("/users/{id}", userHandler.GetUser)
			r.Patch("/users/{id}/active", userHandler.SetActive)
			r.Get("/audit-logs", auditHandler.ListAuditLogs)
			r.Get("/audit-logs/{id}", auditHandler.GetAuditLog)
		})
	})

	return r
}
