package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-service/internal/auth"
	"complaint-service/internal/http/middleware"
	"complaint-service/internal/metrics"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
	"complaint-service/internal/routing"
	"complaint-service/internal/service"
	"complaint-service/internal/testutil"
)

const testSecret = "test-secret"

type stubClassifier struct {
	labels []string
	err    error
}

func (s stubClassifier) Classify(context.Context, []byte, string) ([]string, error) {
	return s.labels, s.err
}

type memoryCounter struct {
	counts map[string]int64
}

func (m *memoryCounter) Incr(_ context.Context, id string, window time.Duration) (int64, time.Duration, error) {
	m.counts[id]++
	return m.counts[id], window, nil
}

type apiEnv struct {
	router     *gin.Engine
	parser     *auth.Parser
	department model.Department
	citizen    model.User
	magistrate model.User
	worker     model.Worker
}

func newAPI(t *testing.T, classifier service.Classifier, dailyLimit int) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	vocab := routing.DefaultVocabulary()
	m := metrics.New()
	log := zerolog.Nop()

	handler := NewHandler(
		service.NewComplaintService(store, vocab, classifier, m, log),
		service.NewAssignmentService(store, vocab, m, log),
		service.NewDepartmentService(store, vocab),
		service.NewWorkerService(store, vocab),
		service.NewAnalyticsService(store, vocab, time.UTC),
		log,
	)

	parser := auth.NewParser(testSecret)
	limiter := middleware.SubmissionLimit(&memoryCounter{counts: map[string]int64{}}, dailyLimit, log)

	e := &apiEnv{
		router: NewRouter(handler, middleware.Auth(parser), limiter, m, "test"),
		parser: parser,
	}
	e.department = testutil.SeedDepartment(t, db, "Sanitation", 10, "Garbage & Waste")
	e.citizen = testutil.SeedUser(t, db, model.RoleCitizen, nil)
	e.magistrate = testutil.SeedUser(t, db, model.RoleDistrictMagistrate, nil)
	e.worker = testutil.SeedWorker(t, db, &e.department.ID)
	return e
}

func (e *apiEnv) token(t *testing.T, user model.User) string {
	t.Helper()
	token, err := e.parser.Issue(auth.Claims{UserID: user.ID, Role: user.Role, DepartmentID: user.DepartmentID}, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *apiEnv) do(t *testing.T, method, path string, user *model.User, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, *user))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func newComplaintBody() gin.H {
	return gin.H{
		"categories": []string{"Garbage"},
		"note":       "overflowing bin",
		"latitude":   26.4499,
		"longitude":  80.3319,
		"ward":       "Ward 7",
		"image_url":  "https://cdn.example.org/complaints/1.jpg",
	}
}

func TestAPI_ComplaintLifecycle(t *testing.T) {
	e := newAPI(t, stubClassifier{}, 0)

	w := e.do(t, http.MethodPost, "/complaints", &e.citizen, newComplaintBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.Complaint
	decodeData(t, w, &created)
	assert.Equal(t, model.ComplaintStatusSubmitted, created.Status)
	base := "/complaints/" + created.ID.String()

	w = e.do(t, http.MethodPost, base+"/rating", &e.citizen, gin.H{"rating": 4})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(t, http.MethodPost, base+"/assign", &e.citizen, gin.H{"worker_id": e.worker.User.ID.String()})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, base+"/assign", &e.magistrate, gin.H{
		"worker_id":            e.worker.User.ID.String(),
		"estimated_completion": "2030-01-02",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var assigned model.Complaint
	decodeData(t, w, &assigned)
	assert.Equal(t, model.ComplaintStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssignedDepartmentID)
	assert.Equal(t, e.department.ID, *assigned.AssignedDepartmentID)

	w = e.do(t, http.MethodPost, base+"/complete", &e.worker.User, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, base+"/complete", &e.worker.User, gin.H{
		"completion_image_url": "https://cdn.example.org/complaints/1-done.jpg",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, base+"/rating", &e.citizen, gin.H{"rating": 4, "feedback": "quick"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, base+"/history", &e.magistrate, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []model.StatusHistoryEntry
	decodeData(t, w, &history)
	require.Len(t, history, 3)
	assert.Equal(t, model.ComplaintStatusSubmitted, history[0].Status)
	assert.Equal(t, model.ComplaintStatusAssigned, history[1].Status)
	assert.Equal(t, model.ComplaintStatusCompleted, history[2].Status)

	w = e.do(t, http.MethodGet, base+"/assignments", &e.magistrate, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var assignments []model.ComplaintAssignment
	decodeData(t, w, &assignments)
	require.Len(t, assignments, 1)
	assert.Equal(t, e.worker.User.ID, assignments[0].WorkerID)

	w = e.do(t, http.MethodGet, "/analytics/dashboard", &e.magistrate, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot map[string]interface{}
	decodeData(t, w, &snapshot)
	assert.EqualValues(t, 1, snapshot["total_complaints"])
	assert.EqualValues(t, 1, snapshot["completed_complaints"])
}

func TestAPI_Errors(t *testing.T) {
	e := newAPI(t, stubClassifier{}, 0)

	tests := []struct {
		name   string
		method string
		path   string
		user   *model.User
		body   interface{}
		status int
	}{
		{name: "no token", method: http.MethodGet, path: "/complaints", status: http.StatusUnauthorized},
		{name: "bad id", method: http.MethodGet, path: "/complaints/nope", user: &e.citizen, status: http.StatusBadRequest},
		{name: "unknown complaint", method: http.MethodGet, path: "/complaints/" + uuid.NewString(), user: &e.magistrate, status: http.StatusNotFound},
		{name: "malformed json", method: http.MethodPost, path: "/complaints", user: &e.citizen, body: "[", status: http.StatusBadRequest},
		{name: "latitude out of range", method: http.MethodPost, path: "/complaints", user: &e.citizen, body: gin.H{
			"categories": []string{"Garbage"}, "latitude": 91.0, "longitude": 0.0, "image_url": "https://x/y.jpg",
		}, status: http.StatusBadRequest},
		{name: "staff cannot file", method: http.MethodPost, path: "/complaints", user: &e.magistrate, body: newComplaintBody(), status: http.StatusForbidden},
		{name: "citizen cannot manage departments", method: http.MethodPost, path: "/departments", user: &e.citizen, body: gin.H{"name": "Parks"}, status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAPI_SubmissionLimit(t *testing.T) {
	e := newAPI(t, stubClassifier{}, 1)

	w := e.do(t, http.MethodPost, "/complaints", &e.citizen, newComplaintBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodPost, "/complaints", &e.citizen, newComplaintBody())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = e.do(t, http.MethodGet, "/complaints", &e.citizen, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var complaints []model.Complaint
	decodeData(t, w, &complaints)
	assert.Len(t, complaints, 1)
}

func classifyRequest(t *testing.T, e *apiEnv) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "bin.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/complaints/classify", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token(t, e.citizen))

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestAPI_Classify(t *testing.T) {
	t.Run("labels are canonicalised", func(t *testing.T) {
		e := newAPI(t, stubClassifier{labels: []string{"garbage", "Garbage & Waste", "Potholes"}}, 0)

		w := classifyRequest(t, e)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out struct {
			Categories []string `json:"categories"`
		}
		decodeData(t, w, &out)
		assert.Equal(t, []string{"Garbage & Waste", "Potholes & Roads"}, out.Categories)
	})

	t.Run("classifier failure degrades to empty list", func(t *testing.T) {
		e := newAPI(t, stubClassifier{err: errors.New("timeout")}, 0)

		w := classifyRequest(t, e)
		require.Equal(t, http.StatusOK, w.Code)
		var out struct {
			Categories []string `json:"categories"`
		}
		decodeData(t, w, &out)
		assert.Empty(t, out.Categories)
		assert.NotNil(t, out.Categories)
	})

	t.Run("missing file", func(t *testing.T) {
		e := newAPI(t, stubClassifier{}, 0)
		w := e.do(t, http.MethodPost, "/complaints/classify", &e.citizen, gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	e := newAPI(t, stubClassifier{}, 0)

	w := e.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `complaints_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}
