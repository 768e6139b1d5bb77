package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ireporter/ireporter-api/api"
	"github.com/ireporter/ireporter-api/config"
	"github.com/ireporter/ireporter-api/databases"
	"github.com/ireporter/ireporter-api/models"
	"github.com/ireporter/ireporter-api/notifier"
	"github.com/ireporter/ireporter-api/realtime"
)

// Report exposes the incident report handlers
type Report struct {
	RDB      databases.ReportDatabase
	UDB      databases.UserDatabase
	Notifier Notifier
	Hub      notifier.Presence
}

// coordinate accepts a JSON number or a numeric string and falls back to 0
// when the value does not parse
type coordinate float64

func (c *coordinate) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*c = 0
		return nil
	}
	*c = coordinate(f)
	return nil
}

type createReportRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Lat         coordinate `json:"lat"`
	Lng         coordinate `json:"lng"`
	Type        string     `json:"type"`
	Media       []string   `json:"media"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// CreateReportHandler files a new incident report and notifies every admin
func (h Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())

	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "failed to decode request body", &models.ValidationError{Reason: err.Error()})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Location = strings.TrimSpace(req.Location)
	if req.Title == "" || req.Description == "" || req.Location == "" {
		respondError(w, "invalid report",
			&models.ValidationError{Reason: "title, description and location are required"})
		return
	}

	reportType := strings.TrimSpace(req.Type)
	if reportType == "" {
		reportType = "general"
	}
	media := req.Media
	if media == nil {
		media = []string{}
	}

	report := models.Report{
		ReportID:    uuid.NewString(),
		OwnerID:     caller.UserID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Lat:         float64(req.Lat),
		Lng:         float64(req.Lng),
		Type:        reportType,
		Status:      models.StatusPending,
		Media:       media,
		CreatedAt:   time.Now().UTC(),
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.RDB.Insert(ctx, report); err != nil {
		respondError(w, "failed to create report", err)
		return
	}

	// fan out one notification per admin, failures only cost that admin
	// their notification, the report is already filed
	admins, err := h.UDB.FindAdmins(ctx)
	if err != nil {
		zap.S().Errorw("failed to list admins for new report", "reportId", report.ReportID, "error", err)
	}
	for _, admin := range admins {
		_, err := h.Notifier.Notify(ctx, admin.UserID,
			fmt.Sprintf("New report submitted: %s", report.Title),
			notifier.Options{
				Type:         models.NotificationNewReport,
				EmailSubject: "New report submitted",
				Report:       &report,
			})
		if err != nil {
			zap.S().Errorw("failed to notify admin of new report",
				"adminId", admin.UserID, "reportId", report.ReportID, "error", err)
		}
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "report created",
		"report":  report,
	})
}

// UpdateReportStatusHandler moves a report to a new status and notifies the
// owner, admin only
func (h Report) UpdateReportStatusHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "failed to decode request body", &models.ValidationError{Reason: err.Error()})
		return
	}
	if !models.ValidStatus(req.Status) {
		respondError(w, "invalid status",
			&models.ValidationError{Reason: fmt.Sprintf("status %q is not a valid report status", req.Status)})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := h.RDB.UpdateStatus(ctx, reportID, req.Status)
	if err != nil {
		respondError(w, "failed to update report status", err)
		return
	}

	// both deliveries are best effort, the status change already stuck
	message := fmt.Sprintf("Your report %q is now %q", report.Title, report.Status)
	if _, err := h.Notifier.Notify(ctx, report.OwnerID, message, notifier.Options{
		Type:         models.NotificationStatusUpdate,
		EmailSubject: "Your report status changed",
		Report:       report,
	}); err != nil {
		zap.S().Errorw("failed to notify report owner of status change",
			"reportId", report.ReportID, "ownerId", report.OwnerID, "error", err)
	}
	h.Hub.SendTo(report.OwnerID, realtime.EventReportUpdated, report)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "status updated",
		"report":  report,
	})
}

// GetReportsHandler lists reports. Admins see everything with owner names
// resolved, users see their own.
func (h Report) GetReportsHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if caller.Role == models.RoleAdmin {
		reports, err := h.RDB.FindAll(ctx)
		if err != nil {
			respondError(w, "failed to list reports", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"reports": h.withOwnerNames(ctx, reports)})
		return
	}

	reports, err := h.RDB.FindByOwnerID(ctx, caller.UserID)
	if err != nil {
		respondError(w, "failed to list reports", err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}

	// mirror the listing onto the caller's live connections
	h.Hub.SendTo(caller.UserID, realtime.EventUserReports, map[string]interface{}{"reports": reports})

	respondJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

func (h Report) withOwnerNames(ctx context.Context, reports []models.Report) []models.ReportView {
	names := map[string]string{}
	views := make([]models.ReportView, 0, len(reports))
	for _, report := range reports {
		name, ok := names[report.OwnerID]
		if !ok {
			name = "Unknown"
			if owner, err := h.UDB.FindByUserID(ctx, report.OwnerID); err == nil {
				name = owner.DisplayName()
			}
			names[report.OwnerID] = name
		}
		views = append(views, models.ReportView{Report: report, UserName: name})
	}
	return views
}

// DeleteReportHandler removes a report, owners only
func (h Report) DeleteReportHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.UserFromContext(r.Context())
	reportID := mux.Vars(r)["report_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := h.RDB.FindByReportID(ctx, reportID)
	if err != nil {
		respondError(w, "failed to get report", err)
		return
	}
	if report.OwnerID != caller.UserID {
		config.ErrorStatus("you can only delete your own reports", http.StatusForbidden, w,
			fmt.Errorf("user %s is not the owner of report %s", caller.UserID, reportID))
		return
	}

	if err := h.RDB.Delete(ctx, reportID); err != nil {
		respondError(w, "failed to delete report", err)
		return
	}

	if _, err := h.Notifier.Notify(ctx, report.OwnerID,
		fmt.Sprintf("Your report %q was deleted", report.Title),
		notifier.Options{Type: models.NotificationReportDeleted}); err != nil {
		zap.S().Errorw("failed to notify owner of report deletion",
			"reportId", reportID, "error", err)
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "report deleted"})
}
