package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ireporter/ireporter-api/api"
	"github.com/ireporter/ireporter-api/api/scheduler"
	"github.com/ireporter/ireporter-api/config"
	"github.com/ireporter/ireporter-api/databases"
	"github.com/ireporter/ireporter-api/mailer"
	"github.com/ireporter/ireporter-api/models"
	"github.com/ireporter/ireporter-api/notifier"
	"github.com/ireporter/ireporter-api/realtime"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Hub       *realtime.Hub
	Notifier  *notifier.Service
	Tasks     *notifier.TaskQueue
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	userDB := databases.NewUserDatabase(a.dbHelper)
	reportDB := databases.NewReportDatabase(a.dbHelper)
	notificationDB := databases.NewNotificationDatabase(a.dbHelper)

	if a.Hub == nil {
		a.Hub = realtime.NewHub()
	}
	if a.Tasks == nil {
		a.Tasks = notifier.NewTaskQueue()
	}
	if a.Notifier == nil {
		a.Notifier = &notifier.Service{
			Users:         userDB,
			Notifications: notificationDB,
			Presence:      a.Hub,
			Mailer: mailer.SendGrid{
				APIKey:    os.Getenv("SENDGRID_API_KEY"),
				FromName:  a.Config.MailFromName,
				FromEmail: a.Config.MailFrom,
			},
			Tasks: a.Tasks,
		}
	}

	m := api.Middleware{Secret: []byte(a.Config.JWTSecret)}
	metrics := api.NewMetricsRegistry()

	auth := Auth{DB: userDB, Secret: []byte(a.Config.JWTSecret)}
	u := User{DB: userDB}
	report := Report{RDB: reportDB, UDB: userDB, Notifier: a.Notifier, Hub: a.Hub}
	notification := Notification{NDB: notificationDB, Notifier: a.Notifier}
	media := Media{}
	ws := Realtime{Hub: a.Hub}
	metricsHandler := Metrics{Registry: metrics}

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware(metrics))

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// websocket endpoint, clients register their room after connecting
	r.HandleFunc("/ws", ws.ServeWS)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/register", http.HandlerFunc(auth.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(auth.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/logout", http.HandlerFunc(auth.LogoutHandler)).Methods("POST")
	apiCreate.Handle("/auth/me", m.Protect(http.HandlerFunc(auth.MeHandler))).Methods("GET")

	apiCreate.Handle("/users", m.ProtectAdmin(http.HandlerFunc(u.ListUsersHandler))).Methods("GET")
	apiCreate.Handle("/users/profile", m.Protect(http.HandlerFunc(u.GetProfileHandler))).Methods("GET")
	apiCreate.Handle("/users/profile", m.Protect(http.HandlerFunc(u.UpdateProfileHandler))).Methods("PUT")
	apiCreate.Handle("/users/password", m.Protect(http.HandlerFunc(u.UpdatePasswordHandler))).Methods("PUT")
	apiCreate.Handle("/users/first-login-shown", m.Protect(http.HandlerFunc(u.FirstLoginShownHandler))).Methods("PUT")

	apiCreate.Handle("/reports", m.Protect(http.HandlerFunc(report.CreateReportHandler))).Methods("POST")
	apiCreate.Handle("/reports", m.Protect(http.HandlerFunc(report.GetReportsHandler))).Methods("GET")
	apiCreate.Handle("/reports/{report_id}/status", m.ProtectAdmin(http.HandlerFunc(report.UpdateReportStatusHandler))).Methods("PUT")
	apiCreate.Handle("/reports/{report_id}", m.Protect(http.HandlerFunc(report.DeleteReportHandler))).Methods("DELETE")

	apiCreate.Handle("/notifications", m.Protect(http.HandlerFunc(notification.GetNotificationsHandler))).Methods("GET")
	apiCreate.Handle("/notifications", m.ProtectAdmin(http.HandlerFunc(notification.CreateNotificationHandler))).Methods("POST")
	apiCreate.Handle("/notifications", m.Protect(http.HandlerFunc(notification.DeleteAllNotificationsHandler))).Methods("DELETE")
	apiCreate.Handle("/notifications/mark-all-read", m.Protect(http.HandlerFunc(notification.MarkAllReadHandler))).Methods("PUT")
	apiCreate.Handle("/notifications/{notification_id}/read", m.Protect(http.HandlerFunc(notification.MarkReadHandler))).Methods("PUT")
	apiCreate.Handle("/notifications/{notification_id}", m.Protect(http.HandlerFunc(notification.DeleteNotificationHandler))).Methods("DELETE")

	apiCreate.Handle("/media/signature", m.Protect(http.HandlerFunc(media.GenerateSignature))).Methods("POST")

	apiCreate.Handle("/metrics", m.ProtectAdmin(http.HandlerFunc(metricsHandler.GetMetricsHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("ireporter-api has connected to the database")

	// initialize api router
	a.initializeRoutes()

	// background digest and cleanup jobs
	a.Scheduler = scheduler.New(
		databases.NewUserDatabase(a.dbHelper),
		databases.NewNotificationDatabase(a.dbHelper),
		a.Notifier.Mailer,
	)
	a.Scheduler.Start()

	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
