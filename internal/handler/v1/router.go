package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clinicore/clinicore/internal/config"
	"github.com/clinicore/clinicore/internal/handler/middleware"
	"github.com/clinicore/clinicore/pkg/auth"
	"github.com/clinicore/clinicore/pkg/metrics"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth          *AuthHandler
	Patient       *PatientHandler
	Doctor        *DoctorHandler
	Appointment   *AppointmentHandler
	MedicalRecord *MedicalRecordHandler
	Prescription  *PrescriptionHandler
}

func NewRouter(cfg *config.Config, jwtManager *auth.JWTManager, m *metrics.Collector, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing(cfg.App.Name))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics(m))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	h.Auth.RegisterRoutes(authGroup)

	protected := api.Group("")
	protected.Use(middleware.Authenticate(jwtManager))

	h.Auth.RegisterProtectedRoutes(protected.Group("/auth"))
	h.Patient.RegisterRoutes(protected.Group("/patients"))
	h.Doctor.RegisterRoutes(protected.Group("/doctors"))
	h.Appointment.RegisterRoutes(protected.Group("/appointments"))
	h.MedicalRecord.RegisterRoutes(protected.Group("/medical-records"))
	h.Prescription.RegisterRoutes(protected.Group("/prescriptions"))

	return r
}
