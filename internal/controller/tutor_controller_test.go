package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/middleware"
	"adaptive_tutor/internal/model"
	"adaptive_tutor/internal/repository"
	"adaptive_tutor/internal/service"
	"adaptive_tutor/internal/testutil"
	"adaptive_tutor/internal/util"
	"adaptive_tutor/pkg/lock"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newRouter(t *testing.T, db *gorm.DB, auth config.AuthConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{Tutor: config.DefaultTutorConfig(), Auth: auth}
	attempts := repository.NewAttemptRepository(db)
	students := repository.NewStudentRepository(db)
	competencies := repository.NewCompetencyRepository(db)
	exercises := repository.NewExerciseRepository(db)
	scores := repository.NewScoreRepository(db)

	mastery := service.NewMasteryService(attempts, students, competencies, repository.NewMasteryRepository(db), nil, cfg.Tutor)
	progress := service.NewProgressService(db, attempts, exercises, competencies, scores, students, cfg.Tutor)
	selector := service.NewSelectorService(attempts, exercises, service.NewRandPicker(3), cfg.Tutor)
	tutor := service.NewTutorService(db, students, competencies, exercises, attempts, scores,
		mastery, progress, selector, lock.NewLocalLocker(time.Second), cfg)

	tc := NewTutorController(tutor, TutorLimits{SuggestionLimit: 5, SuggestionMaxLimit: 50, HistoryLimit: 3, HistoryMaxLimit: 20})
	hc := NewHealthController(db, nil, nil)

	r := gin.New()
	r.GET("/api/health", hc.HealthCheck)
	g := r.Group("/api/tutor", middleware.AuthMiddleware(cfg.Auth))
	g.GET("/next-exercise", tc.NextExercise)
	g.POST("/answer", tc.SubmitAnswer)
	g.GET("/mastery", tc.Mastery)
	g.GET("/suggestions", tc.Suggestions)
	g.GET("/progress", tc.Progress)
	g.GET("/history", tc.History)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func token(t *testing.T, studentID uint, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, util.Claims{
		StudentID: studentID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestNextExerciseValidation(t *testing.T) {
	db := testutil.DB(t)
	r := newRouter(t, db, config.AuthConfig{})
	student := testutil.SeedStudent(t, db, "ana", nil)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"missing student", "/api/tutor/next-exercise", http.StatusBadRequest},
		{"non numeric student", "/api/tutor/next-exercise?student_id=abc", http.StatusBadRequest},
		{"bad steering", fmt.Sprintf("/api/tutor/next-exercise?student_id=%d&steering=sideways", student.ID), http.StatusBadRequest},
		{"unknown student", "/api/tutor/next-exercise?student_id=999", http.StatusNotFound},
		{"unknown competency", fmt.Sprintf("/api/tutor/next-exercise?student_id=%d&competency_id=999", student.ID), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodGet, tt.path, nil, "")
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestNextExerciseHidesAnswers(t *testing.T) {
	db := testutil.DB(t)
	r := newRouter(t, db, config.AuthConfig{})
	student := testutil.SeedStudent(t, db, "ana", nil)
	c := testutil.SeedCompetency(t, db, "numbers", model.AreaQuantity, 1)
	testutil.SeedExercise(t, db, c.ID, 3, 1)

	w, env := do(t, r, http.MethodGet, fmt.Sprintf("/api/tutor/next-exercise?student_id=%d&steering=mas_facil", student.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp service.NextExerciseResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.False(t, resp.Exhausted)
	require.NotNil(t, resp.Exercise)
	assert.Len(t, resp.Exercise.Options, 3)
	assert.NotContains(t, string(env.Data), "is_correct")
}

func TestSubmitAnswerStatusCodes(t *testing.T) {
	db := testutil.DB(t)
	r := newRouter(t, db, config.AuthConfig{})
	student := testutil.SeedStudent(t, db, "ana", nil)
	c := testutil.SeedCompetency(t, db, "numbers", model.AreaQuantity, 1)
	e := testutil.SeedExercise(t, db, c.ID, 3, 1)
	other := testutil.SeedExercise(t, db, c.ID, 2, 0)
	ambiguous := testutil.SeedExercise(t, db, c.ID, 3, 0, 1)

	tests := []struct {
		name string
		body any
		code int
	}{
		{"malformed", "not an object", http.StatusBadRequest},
		{"missing option", gin.H{"student_id": student.ID, "exercise_id": e.ID}, http.StatusBadRequest},
		{"negative elapsed", gin.H{"student_id": student.ID, "exercise_id": e.ID, "option_id": e.Options[0].ID, "elapsed_seconds": -1}, http.StatusBadRequest},
		{"unknown student", gin.H{"student_id": 999, "exercise_id": e.ID, "option_id": e.Options[0].ID}, http.StatusNotFound},
		{"unknown exercise", gin.H{"student_id": student.ID, "exercise_id": 999, "option_id": e.Options[0].ID}, http.StatusNotFound},
		{"option of another exercise", gin.H{"student_id": student.ID, "exercise_id": e.ID, "option_id": other.Options[0].ID}, http.StatusBadRequest},
		{"ambiguous exercise", gin.H{"student_id": student.ID, "exercise_id": ambiguous.ID, "option_id": ambiguous.Options[0].ID}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := do(t, r, http.MethodPost, "/api/tutor/answer", tt.body, "")
			assert.Equal(t, tt.code, w.Code)
		})
	}

	var count int64
	require.NoError(t, db.Model(&model.Attempt{}).Count(&count).Error)
	assert.Zero(t, count)

	w, env := do(t, r, http.MethodPost, "/api/tutor/answer",
		gin.H{"student_id": student.ID, "exercise_id": e.ID, "option_id": testutil.CorrectOption(e).ID, "elapsed_seconds": 20}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp service.AnswerResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.Correct)
	assert.NotZero(t, resp.AttemptID)
}

func TestReadEndpoints(t *testing.T) {
	db := testutil.DB(t)
	r := newRouter(t, db, config.AuthConfig{})
	student := testutil.SeedStudent(t, db, "ana", map[model.Area]int{model.AreaQuantity: 80})
	c := testutil.SeedCompetency(t, db, "numbers", model.AreaQuantity, 1)
	e := testutil.SeedExercise(t, db, c.ID, 3, 1)
	testutil.SeedAttempt(t, db, student.ID, e, true)

	w, env := do(t, r, http.MethodGet, fmt.Sprintf("/api/tutor/mastery?student_id=%d&competency_id=%d", student.ID, c.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var est service.MasteryEstimate
	require.NoError(t, json.Unmarshal(env.Data, &est))
	assert.Equal(t, model.MasteryHigh, est.Level)

	w, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/tutor/mastery?student_id=%d", student.ID), nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/tutor/suggestions?student_id=%d&competency_id=%d&limit=0", student.ID, c.ID), nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/tutor/suggestions?student_id=%d&competency_id=%d", student.ID, c.ID), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/tutor/progress?student_id=%d", student.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var progress service.ProgressResponse
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	assert.Equal(t, int64(1), progress.AttemptCount)

	w, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/tutor/history?student_id=%d", student.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var items []service.HistoryItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, e.ID, items[0].ExerciseID)

	// 历史与建议各自的上限
	w, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/tutor/history?student_id=%d&limit=30", student.ID), nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/tutor/suggestions?student_id=%d&competency_id=%d&limit=30", student.ID, c.ID), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthScopesStudent(t *testing.T) {
	db := testutil.DB(t)
	r := newRouter(t, db, config.AuthConfig{Enabled: true, Secret: testSecret})
	ana := testutil.SeedStudent(t, db, "ana", nil)
	luis := testutil.SeedStudent(t, db, "luis", nil)
	path := fmt.Sprintf("/api/tutor/progress?student_id=%d", ana.ID)

	w, _ := do(t, r, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, r, http.MethodGet, path, nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, r, http.MethodGet, path, nil, token(t, luis.ID, "student"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, r, http.MethodGet, path, nil, token(t, ana.ID, "student"))
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, path, nil, token(t, luis.ID, util.RoleTeacher))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthCheck(t *testing.T) {
	db := testutil.DB(t)
	r := newRouter(t, db, config.AuthConfig{})

	w, env := do(t, r, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "baseline-only")
}
