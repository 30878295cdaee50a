package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/comunidad/residence-service/internal/config"
	"github.com/comunidad/residence-service/internal/constants"
	"github.com/comunidad/residence-service/internal/controllers"
	"github.com/comunidad/residence-service/internal/metrics"
	"github.com/comunidad/residence-service/internal/middleware"
	"github.com/comunidad/residence-service/internal/models"
	"github.com/comunidad/residence-service/internal/routes"
)

type Controllers struct {
	Health      *controllers.HealthController
	Residence   *controllers.ResidenceController
	Consistency *controllers.ConsistencyController
}

// NewRouter mounts every route and wraps the router with CORS.
func NewRouter(cfg *config.Config, c Controllers) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger, metrics.Middleware)

	router.HandleFunc(routes.Health, c.Health.HealthCheckHandler).Methods(http.MethodGet)
	router.Handle(routes.Metrics, metrics.Handler()).Methods(http.MethodGet)

	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))

	admin := secured.NewRoute().Subrouter()
	admin.Use(middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleSuperAdmin))

	admin.HandleFunc(routes.ResidenceConsistency, c.Consistency.AuditHandler).Methods(http.MethodGet)

	secured.HandleFunc(routes.Residences, c.Residence.ListResidencesHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Residence, c.Residence.GetResidenceHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.ResidenceHistory, c.Residence.GetHistoryHandler).Methods(http.MethodGet)

	admin.HandleFunc(routes.Residences, c.Residence.CreateResidenceHandler).Methods(http.MethodPost)
	admin.HandleFunc(routes.Residence, c.Residence.UpdateResidenceHandler).Methods(http.MethodPut)
	admin.HandleFunc(routes.Residence, c.Residence.DeleteResidenceHandler).Methods(http.MethodDelete)
	admin.HandleFunc(routes.ResidenceAssign, c.Residence.AssignResidentHandler).Methods(http.MethodPost)

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, constants.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	return co.Handler(router)
}
