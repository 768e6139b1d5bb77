package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ireporter/ireporter-api/api"
	"github.com/ireporter/ireporter-api/databases/mocks"
	"github.com/ireporter/ireporter-api/models"
	"github.com/ireporter/ireporter-api/notifier"
)

type notifyCall struct {
	recipientID string
	message     string
	opts        notifier.Options
}

type fakeNotifier struct {
	err   error
	calls []notifyCall
}

func (f *fakeNotifier) Notify(ctx context.Context, recipientID, message string, opts notifier.Options) (*models.Notification, error) {
	f.calls = append(f.calls, notifyCall{recipientID: recipientID, message: message, opts: opts})
	if f.err != nil {
		return nil, f.err
	}
	return &models.Notification{NotificationID: "n-1", RecipientID: recipientID, Message: message}, nil
}

type hubEvent struct {
	userID string
	event  string
	data   interface{}
}

type fakeHub struct {
	online map[string]bool
	events []hubEvent
}

func (f *fakeHub) IsOnline(userID string) bool { return f.online[userID] }

func (f *fakeHub) SendTo(userID, event string, data interface{}) {
	f.events = append(f.events, hubEvent{userID: userID, event: event, data: data})
}

func authedRequest(method, target, body string, user api.AuthUser) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	return r.WithContext(api.WithAuthUser(r.Context(), user))
}

func TestCreateReportNotifiesEveryAdmin(t *testing.T) {
	reportDB := mocks.NewReportDatabase(t)
	userDB := mocks.NewUserDatabase(t)
	n := &fakeNotifier{}
	h := Report{RDB: reportDB, UDB: userDB, Notifier: n, Hub: &fakeHub{}}

	reportDB.On("Insert", mock.Anything, mock.MatchedBy(func(r models.Report) bool {
		return r.Status == models.StatusPending &&
			r.OwnerID == "user-1" &&
			r.Title == "Broken streetlight" &&
			r.ReportID != ""
	})).Return(nil)
	userDB.On("FindAdmins", mock.Anything).Return([]models.User{
		{UserID: "admin-1", Role: models.RoleAdmin},
		{UserID: "admin-2", Role: models.RoleAdmin},
	}, nil)

	body := `{"title": "Broken streetlight", "description": "dark corner", "location": "5th Ave", "lat": 1.5, "lng": -3.25}`
	req := authedRequest(http.MethodPost, "/api/v1/reports", body, api.AuthUser{UserID: "user-1", Role: models.RoleUser})
	w := httptest.NewRecorder()

	h.CreateReportHandler(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, n.calls, 2)
	assert.Equal(t, "admin-1", n.calls[0].recipientID)
	assert.Equal(t, "admin-2", n.calls[1].recipientID)
	assert.Equal(t, "New report submitted: Broken streetlight", n.calls[0].message)
	assert.Equal(t, models.NotificationNewReport, n.calls[0].opts.Type)
}

func TestCreateReportUnparsableCoordinatesFallBackToZero(t *testing.T) {
	reportDB := mocks.NewReportDatabase(t)
	userDB := mocks.NewUserDatabase(t)
	h := Report{RDB: reportDB, UDB: userDB, Notifier: &fakeNotifier{}, Hub: &fakeHub{}}

	reportDB.On("Insert", mock.Anything, mock.MatchedBy(func(r models.Report) bool {
		return r.Lat == 0 && r.Lng == 1.5
	})).Return(nil)
	userDB.On("FindAdmins", mock.Anything).Return([]models.User{}, nil)

	body := `{"title": "t", "description": "d", "location": "l", "lat": "not-a-number", "lng": "1.5"}`
	req := authedRequest(http.MethodPost, "/api/v1/reports", body, api.AuthUser{UserID: "user-1"})
	w := httptest.NewRecorder()

	h.CreateReportHandler(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateReportMissingFields(t *testing.T) {
	reportDB := mocks.NewReportDatabase(t)
	h := Report{RDB: reportDB, UDB: mocks.NewUserDatabase(t), Notifier: &fakeNotifier{}, Hub: &fakeHub{}}

	body := `{"description": "d", "location": "l"}`
	req := authedRequest(http.MethodPost, "/api/v1/reports", body, api.AuthUser{UserID: "user-1"})
	w := httptest.NewRecorder()

	h.CreateReportHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	reportDB.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestUpdateReportStatusRejectsUnknownStatus(t *testing.T) {
	reportDB := mocks.NewReportDatabase(t)
	n := &fakeNotifier{}
	h := Report{RDB: reportDB, UDB: mocks.NewUserDatabase(t), Notifier: n, Hub: &fakeHub{}}

	req := authedRequest(http.MethodPut, "/api/v1/reports/r-1/status", `{"status": "done"}`,
		api.AuthUser{UserID: "admin-1", Role: models.RoleAdmin})
	req = mux.SetURLVars(req, map[string]string{"report_id": "r-1"})
	w := httptest.NewRecorder()

	h.UpdateReportStatusHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// the store is never touched on a validation failure
	reportDB.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, n.calls)
}

func TestUpdateReportStatusNotifiesOwner(t *testing.T) {
	reportDB := mocks.NewReportDatabase(t)
	n := &fakeNotifier{}
	hub := &fakeHub{}
	h := Report{RDB: reportDB, UDB: mocks.NewUserDatabase(t), Notifier: n, Hub: hub}

	updated := &models.Report{
		ReportID: "r-1",
		OwnerID:  "user-1",
		Title:    "Pothole",
		Status:   models.StatusResolved,
	}
	reportDB.On("UpdateStatus", mock.Anything, "r-1", models.StatusResolved).Return(updated, nil)

	req := authedRequest(http.MethodPut, "/api/v1/reports/r-1/status", `{"status": "resolved"}`,
		api.AuthUser{UserID: "admin-1", Role: models.RoleAdmin})
	req = mux.SetURLVars(req, map[string]string{"report_id": "r-1"})
	w := httptest.NewRecorder()

	h.UpdateReportStatusHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, n.calls, 1)
	assert.Equal(t, "user-1", n.calls[0].recipientID)
	assert.Equal(t, `Your report "Pothole" is now "resolved"`, n.calls[0].message)
	assert.Equal(t, models.NotificationStatusUpdate, n.calls[0].opts.Type)

	assert.Len(t, hub.events, 1)
	assert.Equal(t, "report:updated", hub.events[0].event)
	assert.Equal(t, "user-1", hub.events[0].userID)
}

func TestUpdateReportStatusUnknownReport(t *testing.T) {
	reportDB := mocks.NewReportDatabase(t)
	h := Report{RDB: reportDB, UDB: mocks.NewUserDatabase(t), Notifier: &fakeNotifier{}, Hub: &fakeHub{}}

	reportDB.On("UpdateStatus", mock.Anything, "nope", models.StatusRejected).
		Return(nil, &models.NotFoundError{Resource: "report", ID: "nope"})

	req := authedRequest(http.MethodPut, "/api/v1/reports/nope/status", `{"status": "rejected"}`,
		api.AuthUser{UserID: "admin-1", Role: models.RoleAdmin})
	req = mux.SetURLVars(req, map[string]string{"report_id": "nope"})
	w := httptest.NewRecorder()

	h.UpdateReportStatusHandler(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReportsAsUserEmitsUserReports(t *testing.T) {
	reportDB := mocks.NewReportDatabase(t)
	hub := &fakeHub{}
	h := Report{RDB: reportDB, UDB: mocks.NewUserDatabase(t), Notifier: &fakeNotifier{}, Hub: hub}

	reportDB.On("FindByOwnerID", mock.Anything, "user-1").Return([]models.Report{
		{ReportID: "r-1", OwnerID: "user-1", Title: "Pothole"},
	}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/reports", "", api.AuthUser{UserID: "user-1", Role: models.RoleUser})
	w := httptest.NewRecorder()

	h.GetReportsHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pothole")
	assert.Len(t, hub.events, 1)
	assert.Equal(t, "user-reports", hub.events[0].event)
}

func TestGetReportsAsAdminResolvesOwnerNames(t *testing.T) {
	reportDB := mocks.NewReportDatabase(t)
	userDB := mocks.NewUserDatabase(t)
	h := Report{RDB: reportDB, UDB: userDB, Notifier: &fakeNotifier{}, Hub: &fakeHub{}}

	reportDB.On("FindAll", mock.Anything).Return([]models.Report{
		{ReportID: "r-1", OwnerID: "user-1"},
		{ReportID: "r-2", OwnerID: "user-1"},
		{ReportID: "r-3", OwnerID: "ghost"},
	}, nil)
	userDB.On("FindByUserID", mock.Anything, "user-1").
		Return(&models.User{UserID: "user-1", FirstName: "Ada", LastName: "Lovelace"}, nil).Once()
	userDB.On("FindByUserID", mock.Anything, "ghost").
		Return(nil, &models.NotFoundError{Resource: "user", ID: "ghost"}).Once()

	req := authedRequest(http.MethodGet, "/api/v1/reports", "", api.AuthUser{UserID: "admin-1", Role: models.RoleAdmin})
	w := httptest.NewRecorder()

	h.GetReportsHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ada Lovelace")
	assert.Contains(t, w.Body.String(), "Unknown")
}

func TestDeleteReportOwnerOnly(t *testing.T) {
	reportDB := mocks.NewReportDatabase(t)
	h := Report{RDB: reportDB, UDB: mocks.NewUserDatabase(t), Notifier: &fakeNotifier{}, Hub: &fakeHub{}}

	reportDB.On("FindByReportID", mock.Anything, "r-1").
		Return(&models.Report{ReportID: "r-1", OwnerID: "someone-else"}, nil)

	req := authedRequest(http.MethodDelete, "/api/v1/reports/r-1", "", api.AuthUser{UserID: "user-1"})
	req = mux.SetURLVars(req, map[string]string{"report_id": "r-1"})
	w := httptest.NewRecorder()

	h.DeleteReportHandler(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	reportDB.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteReportNotifiesOwner(t *testing.T) {
	reportDB := mocks.NewReportDatabase(t)
	n := &fakeNotifier{}
	h := Report{RDB: reportDB, UDB: mocks.NewUserDatabase(t), Notifier: n, Hub: &fakeHub{}}

	reportDB.On("FindByReportID", mock.Anything, "r-1").
		Return(&models.Report{ReportID: "r-1", OwnerID: "user-1", Title: "Pothole"}, nil)
	reportDB.On("Delete", mock.Anything, "r-1").Return(nil)

	req := authedRequest(http.MethodDelete, "/api/v1/reports/r-1", "", api.AuthUser{UserID: "user-1"})
	req = mux.SetURLVars(req, map[string]string{"report_id": "r-1"})
	w := httptest.NewRecorder()

	h.DeleteReportHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, n.calls, 1)
	assert.Equal(t, `Your report "Pothole" was deleted`, n.calls[0].message)
}
