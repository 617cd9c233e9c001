package core

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/anoixa/dicom-portal/config"
	"github.com/anoixa/dicom-portal/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status string          `json:"status"`
	Msg    string          `json:"msg"`
	Kind   string          `json:"kind"`
	Data   json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.Config{
		ServerHost:           "127.0.0.1",
		ServerPort:           8080,
		DBType:               "sqlite",
		DBFilePath:           filepath.Join(dir, "portal.db"),
		CacheType:            "memory",
		CacheUserTTL:         time.Minute,
		StorageType:          "local",
		StorageLocalPath:     filepath.Join(dir, "blobs"),
		StorageDeleteTimeout: time.Second,
		JWTSecret:            "test-secret-test-secret-test-secret",
		JWTExpiresIn:         time.Hour,
		RateLimitApiRPS:      1000,
		RateLimitApiBurst:    1000,
		RateLimitAuthRPS:     1000,
		RateLimitAuthBurst:   1000,
		RateLimitExpireTime:  time.Minute,
		UploadMaxSizeMB:      1,
		UploadMaxConcurrency: 2,
		WorkerCount:          1,
		WorkerQueueSize:      8,
	}

	container := app.NewContainer(cfg)
	require.NoError(t, container.Init())

	router, cleanup := NewRouter(cfg, container)
	t.Cleanup(func() {
		cleanup()
		_ = container.Close()
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(req)
}

func (s *testServer) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "application/dicom" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) register(email, role string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email": email, "password": "password-123", "name": email, "role": role,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, env.Msg)

	var user struct {
		ID string `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &user))
	return user.ID
}

func (s *testServer) login(email string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "password-123"})
	require.Equal(s.t, http.StatusOK, w.Code, env.Msg)

	var res struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &res))
	return res.AccessToken
}

func (s *testServer) upload(token, fileName string, content []byte) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(s.t, mw.WriteField("study_type", "CT"))
	require.NoError(s.t, mw.WriteField("notes", "headache"))
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(s.t, err)
	_, err = fw.Write(content)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/studies", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return s.serve(req)
}

func studyID(t *testing.T, env envelope) string {
	var study struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &study))
	require.NotEmpty(t, study.ID)
	return study.ID
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"cache": "ok", "database": "ok", "storage": "ok"}, body.Checks)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodGet, "/version", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	s.register("p@example.com", "patient")

	w, env := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "P@example.com", "password": "password-123", "name": "dup", "role": "doctor",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", env.Kind)

	w, _ = s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "x@example.com", "password": "password-123", "name": "x", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, wrongPassword := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "p@example.com", "password": "nope"})
	_, unknownEmail := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ghost@example.com", "password": "nope"})
	assert.Equal(t, "unauthorized", wrongPassword.Kind)
	assert.Equal(t, wrongPassword.Msg, unknownEmail.Msg)

	token := s.login("p@example.com")
	w, env = s.do(http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"role":"patient"`)

	w, _ = s.do(http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStudyLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.register("p@example.com", "patient")
	s.register("q@example.com", "patient")
	doctorID := s.register("d@example.com", "doctor")
	s.register("h@example.com", "hospital")

	patient := s.login("p@example.com")
	other := s.login("q@example.com")
	doctor := s.login("d@example.com")
	hospital := s.login("h@example.com")

	content := []byte("DICM-fake-content")

	w, env := s.upload(patient, "notes.txt", content)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", env.Kind)

	w, env = s.upload(patient, "chest.dcm", content)
	require.Equal(t, http.StatusCreated, w.Code, env.Msg)
	id := studyID(t, env)
	assert.Contains(t, string(env.Data), `"status":"pending"`)

	// 列表按角色过滤
	_, env = s.do(http.MethodGet, "/api/v1/studies", patient, nil)
	assert.Contains(t, string(env.Data), `"count":1`)
	_, env = s.do(http.MethodGet, "/api/v1/studies", other, nil)
	assert.Contains(t, string(env.Data), `"count":0`)
	_, env = s.do(http.MethodGet, "/api/v1/studies", doctor, nil)
	assert.Contains(t, string(env.Data), `"count":1`)

	w, _ = s.do(http.MethodGet, "/api/v1/studies/"+id, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/studies/"+id+"/file", patient, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/dicom", w.Header().Get("Content-Type"))
	assert.Equal(t, content, w.Body.Bytes())

	w, _ = s.do(http.MethodGet, "/api/v1/studies/"+id+"/file", other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/v1/studies/"+id, patient, gin.H{"notes": "mine"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodPatch, "/api/v1/studies/"+id, doctor, gin.H{
		"status": "in-review", "diagnosis": "no fracture", "doctor_id": doctorID,
	})
	require.Equal(t, http.StatusOK, w.Code, env.Msg)
	assert.Contains(t, string(env.Data), `"status":"in-review"`)
	assert.Contains(t, string(env.Data), `"diagnosis":"no fracture"`)

	w, _ = s.do(http.MethodPatch, "/api/v1/studies/"+id, doctor, gin.H{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/v1/studies/"+id, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/v1/studies/"+id, hospital, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/studies/"+id, hospital, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Kind)
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t)
	s.register("p@example.com", "patient")
	token := s.login("p@example.com")

	w, _ := s.upload(token, "big.dcm", bytes.Repeat([]byte("x"), 3<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
