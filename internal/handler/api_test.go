package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/config"
	"github.com/noah-isme/rollcall-api/internal/handler"
	"github.com/noah-isme/rollcall-api/internal/middleware"
	"github.com/noah-isme/rollcall-api/internal/models"
	"github.com/noah-isme/rollcall-api/internal/repository"
	"github.com/noah-isme/rollcall-api/internal/router"
	"github.com/noah-isme/rollcall-api/internal/service"
	"github.com/noah-isme/rollcall-api/internal/utils"
)

const (
	facultyEmail    = "meera@adithyatech.com"
	facultyPassword = "Lecture@2024"
	defaultPassword = "Welcome@123"
)

type memoryStorage struct {
	names []string
}

func (m *memoryStorage) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	m.names = append(m.names, name)
	return "https://cdn.example.com/" + name, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`

	raw []byte
}

type apiFixture struct {
	app     *fiber.App
	storage *memoryStorage
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	logger := zerolog.Nop()
	validate := utils.NewValidator()
	tokens := auth.NewTokenManager("handler-test-secret", time.Hour)
	storage := &memoryStorage{}

	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	authorizer := auth.NewAuthorizer(service.NewClassDirectory(classRepo))
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)

	authService := service.NewAuthService(repository.NewFacultyRepository(db), studentRepo, auth.NewPasswordHasher(4), tokens, service.AuthConfig{
		EmailDomain:            "adithyatech.com",
		StudentDefaultPassword: defaultPassword,
	}, validate, logger)
	classService := service.NewClassService(classRepo, studentRepo, authorizer, nil, activity, validate, logger)
	attendanceService := service.NewAttendanceService(repository.NewAttendanceRepository(db), classRepo, authorizer, nil, nil, activity, validate, logger)
	postService := service.NewPostService(repository.NewPostRepository(db), classRepo, storage, activity, validate, 1, logger)
	markService := service.NewMarkService(repository.NewMarkRepository(db), authorizer, activity, validate, logger)

	cfg := config.Config{AppName: "Rollcall API", AppEnv: "test"}
	app := fiber.New()
	middleware.Register(app, middleware.Config{AllowOrigins: "http://localhost:5173"})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, false, logger),
		ClassHandler:      handler.NewClassHandler(classService, logger),
		AttendanceHandler: handler.NewAttendanceHandler(attendanceService, logger),
		PostHandler:       handler.NewPostHandler(postService, logger),
		MarkHandler:       handler.NewMarkHandler(markService, logger),
		ActivityHandler:   handler.NewActivityHandler(activity, logger),
		Tokens:            tokens,
	})

	return &apiFixture{app: app, storage: storage}
}

func (f *apiFixture) call(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	switch value := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(value)
	default:
		payload, err := json.Marshal(value)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return f.do(t, req)
}

func (f *apiFixture) do(t *testing.T, req *http.Request) (*http.Response, envelope) {
	t.Helper()

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	env.raw = raw
	return resp, env
}

// requireContract validates a response body against testdata/contracts/<name>.schema.json.
func requireContract(t *testing.T, name string, env envelope) {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("testdata", "contracts", name+".schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(env.raw, &payload))
	require.NoError(t, schema.Validate(payload), string(env.raw))
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookie && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatalf("response carried no session cookie")
	return nil
}

func decode(t *testing.T, raw json.RawMessage, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, out))
}

func (f *apiFixture) signupFaculty(t *testing.T) (uint, *http.Cookie) {
	t.Helper()

	resp, env := f.call(t, http.MethodPost, "/v1/faculty/auth/signup", map[string]string{
		"username": "Meera",
		"email":    facultyEmail,
		"password": facultyPassword,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var faculty struct {
		ID uint `json:"id"`
	}
	decode(t, env.Data, &faculty)

	resp, env = f.call(t, http.MethodPost, "/v1/faculty/auth/signin", map[string]string{
		"email":    facultyEmail,
		"password": facultyPassword,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	return faculty.ID, sessionCookie(t, resp)
}

func TestFacultyAccountFlow(t *testing.T) {
	f := newAPIFixture(t)
	_, cookie := f.signupFaculty(t)

	resp, env := f.call(t, http.MethodPost, "/v1/faculty/auth/signup", map[string]string{
		"username": "Meera Again",
		"email":    facultyEmail,
		"password": facultyPassword,
	}, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.False(t, env.Success)

	resp, _ = f.call(t, http.MethodPost, "/v1/faculty/auth/signin", map[string]string{
		"email":    facultyEmail,
		"password": "Wrong@2024",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env = f.call(t, http.MethodGet, "/v1/class", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	resp, _ = f.call(t, http.MethodPost, "/v1/auth/signout", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			require.Empty(t, c.Value)
		}
	}
}

func TestRequestsWithoutSessionAreRejected(t *testing.T) {
	f := newAPIFixture(t)

	resp, env := f.call(t, http.MethodGet, "/v1/class", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.False(t, env.Success)

	resp, _ = f.call(t, http.MethodGet, "/v1/class", nil, &http.Cookie{Name: middleware.SessionCookie, Value: "forged"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMalformedJSONIsRejected(t *testing.T) {
	f := newAPIFixture(t)

	resp, env := f.call(t, http.MethodPost, "/v1/faculty/auth/signup", `{"email": "x@adithyatech.com",`, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid JSON format in payload", env.Message)
}

func TestValidationDetailsAreReturned(t *testing.T) {
	f := newAPIFixture(t)

	resp, env := f.call(t, http.MethodPost, "/v1/faculty/auth/signup", map[string]string{
		"username": "Meera",
		"email":    "not-an-email",
		"password": "short",
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "validation failed", env.Message)
	require.NotEmpty(t, env.Details)
}

func TestClassroomFlow(t *testing.T) {
	f := newAPIFixture(t)
	facultyID, facultyCookie := f.signupFaculty(t)

	resp, env := f.call(t, http.MethodPost, "/v1/faculty/student", map[string]interface{}{
		"students": []map[string]interface{}{
			{"registerNumber": "21CS001", "isIncharge": true},
			{"registerNumber": "21CS002"},
			{"registerNumber": "21CS003"},
		},
	}, facultyCookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var created struct {
		Created []struct {
			ID             uint   `json:"id"`
			RegisterNumber string `json:"registerNumber"`
		} `json:"created"`
	}
	decode(t, env.Data, &created)
	require.Len(t, created.Created, 3)

	resp, env = f.call(t, http.MethodPost, "/v1/class/create", map[string]interface{}{
		"name":       "CSE A",
		"inchargeId": facultyID,
	}, facultyCookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var class struct {
		ID uint `json:"id"`
	}
	decode(t, env.Data, &class)

	resp, env = f.call(t, http.MethodPost, "/v1/class/add", map[string]interface{}{
		"classId":        class.ID,
		"registerNumber": []string{"21CS001", "21CS002", "21CS003", "99XX999"},
	}, facultyCookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var added struct {
		Added   []json.RawMessage `json:"added"`
		Skipped []string          `json:"skipped"`
	}
	decode(t, env.Data, &added)
	require.Len(t, added.Added, 3)
	require.Equal(t, []string{"99XX999"}, added.Skipped)

	resp, env = f.call(t, http.MethodPost, "/v1/class/attendance", map[string]interface{}{
		"classId":   class.ID,
		"date":      "2024-03-04",
		"isPresent": true,
		"studentId": []uint{created.Created[0].ID},
	}, facultyCookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var recorded struct {
		Mode  string `json:"mode"`
		Count int    `json:"count"`
	}
	requireContract(t, "attendance_record", env)
	decode(t, env.Data, &recorded)
	require.Equal(t, "Present", recorded.Mode)
	require.Equal(t, 1, recorded.Count)

	resp, env = f.call(t, http.MethodGet, fmt.Sprintf("/v1/class/%d/attendance/summary", class.ID), nil, facultyCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	var summary struct {
		TotalSessions int `json:"totalSessions"`
		Students      []struct {
			RegisterNumber string  `json:"registerNumber"`
			Percentage     float64 `json:"percentage"`
		} `json:"students"`
	}
	requireContract(t, "attendance_summary", env)
	decode(t, env.Data, &summary)
	require.Equal(t, 1, summary.TotalSessions)
	require.Len(t, summary.Students, 3)
	require.Equal(t, "21CS001", summary.Students[0].RegisterNumber)
	require.Equal(t, float64(100), summary.Students[0].Percentage)
	require.Equal(t, float64(0), summary.Students[1].Percentage)

	resp, env = f.call(t, http.MethodGet, fmt.Sprintf("/v1/class/%d/student", class.ID), nil, facultyCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	requireContract(t, "class_roster", env)

	resp, env = f.call(t, http.MethodGet, fmt.Sprintf("/v1/class/%d/attendance/date/2024-03-04", class.ID), nil, facultyCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	requireContract(t, "attendance_date", env)
	var rollCall struct {
		Sessions []struct {
			Present int `json:"present"`
			Absent  int `json:"absent"`
		} `json:"sessions"`
	}
	decode(t, env.Data, &rollCall)
	require.Len(t, rollCall.Sessions, 1)
	require.Equal(t, 1, rollCall.Sessions[0].Present)
	require.Equal(t, 2, rollCall.Sessions[0].Absent)

	resp, _ = f.call(t, http.MethodGet, "/v1/class/9999/student", nil, facultyCookie)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = f.call(t, http.MethodGet, fmt.Sprintf("/v1/class/%d/attendance/date/04-03-2024", class.ID), nil, facultyCookie)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, env.Message)

	// students sign in only after replacing the default password
	resp, _ = f.call(t, http.MethodPost, "/v1/student/auth/signin", map[string]string{
		"registerNumber": "21CS002",
		"password":       defaultPassword,
	}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env = f.call(t, http.MethodPut, "/v1/student/auth/password", map[string]string{
		"registerNumber":  "21CS002",
		"currentPassword": defaultPassword,
		"newPassword":     "Student@2024",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	studentCookie := sessionCookie(t, resp)

	resp, _ = f.call(t, http.MethodPost, "/v1/class/create", map[string]interface{}{
		"name":       "Shadow",
		"inchargeId": facultyID,
	}, studentCookie)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.call(t, http.MethodPost, "/v1/class/attendance", map[string]interface{}{
		"classId":   class.ID,
		"date":      "2024-03-05",
		"isPresent": true,
		"studentId": []uint{created.Created[1].ID},
	}, studentCookie)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = f.call(t, http.MethodGet, "/v1/student/attendance", nil, studentCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	var mine struct {
		Classes []struct {
			ClassID uint `json:"classId"`
			Present int  `json:"present"`
			Total   int  `json:"total"`
		} `json:"class"`
	}
	decode(t, env.Data, &mine)
	require.Len(t, mine.Classes, 1)
	require.Equal(t, class.ID, mine.Classes[0].ClassID)
	require.Equal(t, 0, mine.Classes[0].Present)
	require.Equal(t, 1, mine.Classes[0].Total)

	resp, env = f.call(t, http.MethodGet, "/v1/student/class", nil, studentCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	resp, env = f.call(t, http.MethodPost, "/v1/mark", map[string]interface{}{
		"classId": class.ID,
		"exam":    "IA1",
		"marks": []map[string]interface{}{
			{"registerNumber": "21CS001", "mark": 88},
		},
	}, facultyCookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)

	resp, env = f.call(t, http.MethodGet, "/v1/activity?page=1&pageSize=50", nil, facultyCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.NotEmpty(t, env.Meta)
}

func TestPostDocumentUpload(t *testing.T) {
	f := newAPIFixture(t)
	facultyID, cookie := f.signupFaculty(t)

	resp, env := f.call(t, http.MethodPost, "/v1/post", map[string]interface{}{
		"title":    "Unit 1 syllabus",
		"authorId": facultyID,
	}, cookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var created struct {
		Post struct {
			ID uint `json:"id"`
		} `json:"post"`
	}
	decode(t, env.Data, &created)

	upload := func(filename string, content []byte) (*http.Response, envelope) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v1/post/%d/document", created.Post.ID), body)
		req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
		req.AddCookie(cookie)
		return f.do(t, req)
	}

	resp, env = upload("unit-1.pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n%%EOF\n"))
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	var post struct {
		DocumentSource *string `json:"documentSource"`
	}
	decode(t, env.Data, &post)
	require.NotNil(t, post.DocumentSource)
	require.Contains(t, *post.DocumentSource, "https://cdn.example.com/")
	require.Len(t, f.storage.names, 1)

	resp, _ = upload("payload.pdf", []byte{0x7f, 'E', 'L', 'F', 0x02, 0x01, 0x01, 0x00})
	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, _ = upload("huge.pdf", append([]byte("%PDF-1.4\n"), make([]byte, 2*1024*1024)...))
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v1/post/%d/document", created.Post.ID), nil)
	req.AddCookie(cookie)
	resp, _ = f.do(t, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = f.call(t, http.MethodGet, "/v1/post?limit=10", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	var listed struct {
		Total int64 `json:"total"`
	}
	decode(t, env.Data, &listed)
	require.Equal(t, int64(1), listed.Total)

	resp, _ = f.call(t, http.MethodDelete, fmt.Sprintf("/v1/post/%d", created.Post.ID), nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.call(t, http.MethodDelete, fmt.Sprintf("/v1/post/%d", created.Post.ID), nil, cookie)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/health", "/v1/health"} {
		resp, env := f.call(t, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, env.Success)
	}
}
