package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/auth"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/realtime"
	"github.com/zenarog/zenarog-engine/pkg/repositories"
	"github.com/zenarog/zenarog-engine/pkg/services"
)

const testUserHeader = "X-Test-User"

// headerAuthService identifies users by a test header and accepts the
// token "valid-token".
type headerAuthService struct{}

func (headerAuthService) ValidateRequest(r *http.Request) (*auth.Claims, error) {
	userID := r.Header.Get(testUserHeader)
	if userID == "" {
		return nil, auth.ErrMissingAuthorization
	}
	claims := &auth.Claims{Email: userID + "@example.com"}
	claims.Subject = userID
	return claims, nil
}

func (headerAuthService) ValidateToken(token string) (*auth.Claims, error) {
	if token != "valid-token" {
		return nil, errors.New("invalid token")
	}
	claims := &auth.Claims{Email: "user-1@example.com", Name: "Test User"}
	claims.Subject = "user-1"
	return claims, nil
}

func newTestAuthMiddleware() *auth.Middleware {
	return auth.NewMiddleware(headerAuthService{}, zap.NewNop())
}

// withUser returns r with an authenticated user in its context.
func withUser(r *http.Request, userID string) *http.Request {
	claims := &auth.Claims{}
	claims.Subject = userID
	return r.WithContext(auth.WithClaims(r.Context(), claims))
}

// serve routes req through mux as userID ("" for anonymous).
func serve(mux *http.ServeMux, req *http.Request, userID string) *httptest.ResponseRecorder {
	if userID != "" {
		req.Header.Set(testUserHeader, userID)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// testServices wires the real services over an in-memory store.
type testServices struct {
	collections *repositories.Collections
	medications services.MedicationService
	tracker     services.TrackerService
	workouts    services.WorkoutService
	meals       services.MealService
	calories    services.CalorieService
	dashboard   services.DashboardService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	logger := zap.NewNop()
	colls := repositories.NewCollections(repositories.NewMemoryDocumentStore(), realtime.NewLocalBus(), logger)
	medications := services.NewMedicationService(colls.Medications, logger)
	tracker := services.NewTrackerService(colls.Medications, colls.MedicationLogs, logger)

	return &testServices{
		collections: colls,
		medications: medications,
		tracker:     tracker,
		workouts:    services.NewWorkoutService(colls.Workouts, logger),
		meals:       services.NewMealService(colls.Meals, logger),
		calories:    services.NewCalorieService(colls.CalorieLogs, logger),
		dashboard:   services.NewDashboardService(colls, medications, tracker, logger),
	}
}

type mockScanService struct {
	outcome *services.ScanOutcome
	err     error

	lastUserID string
	lastInput  models.ScanInput
	lastSave   bool
}

func (m *mockScanService) Scan(ctx context.Context, userID string, input models.ScanInput, save bool) (*services.ScanOutcome, error) {
	m.lastUserID, m.lastInput, m.lastSave = userID, input, save
	return m.outcome, m.err
}

type mockChatService struct {
	reply string
	err   error

	lastHistory []models.ChatMessage
	lastMessage string
}

func (m *mockChatService) Reply(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	m.lastHistory, m.lastMessage = history, message
	return m.reply, m.err
}

type mockReportService struct {
	pdf []byte
	err error

	lastFrom, lastTo string
}

func (m *mockReportService) MedicationReport(ctx context.Context, userID, from, to string) ([]byte, error) {
	m.lastFrom, m.lastTo = from, to
	return m.pdf, m.err
}

// failingMedicationService fails every read so list fallbacks can be observed.
type failingMedicationService struct {
	services.MedicationService
}

func (failingMedicationService) List(ctx context.Context, userID, source string) ([]*models.MedicationRecord, error) {
	return nil, errors.New("store offline")
}
