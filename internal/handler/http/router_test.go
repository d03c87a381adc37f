package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/workforce-backend-go/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/workforce-backend-go/internal/service/attendance"
	reportService "github.com/cmlabs-hris/workforce-backend-go/internal/service/report"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type handlerClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *handlerClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *handlerClock) Set(hour, min int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = time.Date(c.t.Year(), c.t.Month(), c.t.Day(), hour, min, 0, 0, time.UTC)
}

type handlerEnv struct {
	router *chi.Mux
	jwt    jwt.Service
	clock  *handlerClock
	store  *memory.Store
}

func newHandlerEnv(t *testing.T, limiter *middleware.RateLimiter) *handlerEnv {
	t.Helper()

	fc := &handlerClock{t: time.Date(2024, time.January, 5, 8, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	store.Now = fc.Now
	store.AddCompany("Acme", 1)

	clock := attendanceService.Clock{Now: fc.Now, Location: time.UTC}
	tx := store.Transactor()

	clocks := attendanceService.NewClockService(tx, store.Companies(), store.TimeEntries(), store.BreakIntervals(), clock)
	breaks := attendanceService.NewBreakService(tx, store.TimeEntries(), store.BreakIntervals(), clock)
	requests := attendanceService.NewChangeRequestService(tx, store.TimeEntries(), store.ChangeRequests(), clock)
	reports := reportService.NewReportService(store.TimeEntries(), time.UTC)

	jwtSvc := jwt.NewJWTService(handlerTestSecret, time.Hour)

	router := NewRouter(jwtSvc, Handlers{
		Attendance:    NewAttendanceHandler(clocks, breaks, reports),
		Break:         NewBreakHandler(breaks, clocks),
		ChangeRequest: NewChangeRequestHandler(requests, clocks),
	}, RouterOptions{ClockLimiter: limiter})

	return &handlerEnv{router: router, jwt: jwtSvc, clock: fc, store: store}
}

func (e *handlerEnv) token(t *testing.T, workerID int64, isAdmin bool) string {
	t.Helper()
	token, _, err := e.jwt.GenerateAccessToken(workerID, isAdmin)
	require.NoError(t, err)
	return token
}

func (e *handlerEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	data, _ := resp["data"].(map[string]interface{})
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	return resp.Error.Code
}

// ===== AUTH TESTS =====

func TestRouter_RequiresToken(t *testing.T) {
	env := newHandlerEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", "", map[string]string{"empresa": "Acme"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_AdminRoutesRejectWorkers(t *testing.T) {
	env := newHandlerEnv(t, nil)
	worker := env.token(t, 1, false)

	w := env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-para-outro", worker, map[string]interface{}{
		"user_id": 2,
		"empresa": "Acme",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_Heartbeat(t *testing.T) {
	env := newHandlerEnv(t, nil)

	w := env.do(t, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ===== CLOCK TESTS =====

func TestAttendanceHandler_RegisterClock_EntryThenExit(t *testing.T) {
	env := newHandlerEnv(t, nil)
	worker := env.token(t, 7, false)
	body := map[string]interface{}{"empresa": "acme", "latitude": 38.7, "longitude": -9.1}

	// Act
	entry := env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, body)

	require.Equal(t, http.StatusCreated, entry.Code)
	data := decodeData(t, entry)
	assert.Equal(t, "entrada", data["acao"])

	env.clock.Set(17, 0)
	exit := env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, body)

	require.Equal(t, http.StatusOK, exit.Code)
	data = decodeData(t, exit)
	assert.Equal(t, "saida", data["acao"])
	registo := data["registo"].(map[string]interface{})
	assert.Equal(t, 9.0, registo["total_horas"])
	assert.Equal(t, 1.0, registo["total_intervalo"])

	third := env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, body)
	assert.Equal(t, http.StatusConflict, third.Code)
}

func TestAttendanceHandler_RegisterClock_UnknownCompany(t *testing.T) {
	env := newHandlerEnv(t, nil)
	worker := env.token(t, 7, false)

	w := env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, map[string]string{"empresa": "Nope"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendanceHandler_RegisterClock_Validation(t *testing.T) {
	env := newHandlerEnv(t, nil)
	worker := env.token(t, 7, false)

	w := env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, map[string]interface{}{"latitude": 200})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestAttendanceHandler_ReadQR(t *testing.T) {
	env := newHandlerEnv(t, nil)
	worker := env.token(t, 7, false)

	w := env.do(t, http.MethodPost, "/api/v1/registoPonto/ler-qr", worker, map[string]string{
		"qr_code": `{"empresa":"Acme"}`,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAttendanceHandler_RegisterForOther(t *testing.T) {
	env := newHandlerEnv(t, nil)
	admin := env.token(t, 1, true)

	w := env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-para-outro", admin, map[string]interface{}{
		"user_id": 42,
		"empresa": "Acme",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	registo := decodeData(t, w)["registo"].(map[string]interface{})
	assert.Equal(t, 42.0, registo["user_id"])
}

func TestAttendanceHandler_Get_OtherWorkerForbidden(t *testing.T) {
	env := newHandlerEnv(t, nil)
	owner := env.token(t, 7, false)
	other := env.token(t, 8, false)

	created := env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", owner, map[string]string{"empresa": "Acme"})
	require.Equal(t, http.StatusCreated, created.Code)

	w := env.do(t, http.MethodGet, "/api/v1/registoPonto/1", other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/registoPonto/1", owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAttendanceHandler_Edit(t *testing.T) {
	env := newHandlerEnv(t, nil)
	worker := env.token(t, 7, false)
	created := env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, map[string]string{"empresa": "Acme"})
	require.Equal(t, http.StatusCreated, created.Code)

	// Act
	w := env.do(t, http.MethodPut, "/api/v1/registoPonto/editar/1", worker, map[string]string{
		"horaEntrada": "07:30",
		"horaSaida":   "16:30",
	})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 9.0, data["total_horas"])
}

func TestAttendanceHandler_Edit_BadID(t *testing.T) {
	env := newHandlerEnv(t, nil)
	admin := env.token(t, 1, true)

	w := env.do(t, http.MethodPut, "/api/v1/registoPonto/editar/abc", admin, map[string]string{"horaEntrada": "07:30"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandler_TodayAndLists(t *testing.T) {
	env := newHandlerEnv(t, nil)
	worker := env.token(t, 7, false)
	admin := env.token(t, 1, true)

	none := env.do(t, http.MethodGet, "/api/v1/registoPonto/hoje", worker, nil)
	assert.Equal(t, http.StatusNotFound, none.Code)

	env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, map[string]string{"empresa": "Acme"})

	today := env.do(t, http.MethodGet, "/api/v1/registoPonto/hoje", worker, nil)
	require.Equal(t, http.StatusOK, today.Code)
	assert.Equal(t, "2024-01-05", decodeData(t, today)["data"])

	mine := env.do(t, http.MethodGet, "/api/v1/registoPonto/meus?page=1&limit=10", worker, nil)
	require.Equal(t, http.StatusOK, mine.Code)
	assert.Equal(t, 1.0, decodeData(t, mine)["total_count"])

	all := env.do(t, http.MethodGet, "/api/v1/registoPonto?user_id=8", admin, nil)
	require.Equal(t, http.StatusOK, all.Code)
	assert.Equal(t, 0.0, decodeData(t, all)["total_count"])

	bad := env.do(t, http.MethodGet, "/api/v1/registoPonto?start_date=05-01-2024", admin, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestAttendanceHandler_Export(t *testing.T) {
	env := newHandlerEnv(t, nil)
	worker := env.token(t, 7, false)
	admin := env.token(t, 1, true)
	env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, map[string]string{"empresa": "Acme"})

	w := env.do(t, http.MethodGet, "/api/v1/registoPonto/exportar?start_date=2024-01-01&end_date=2024-01-31", admin, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.TimesheetContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "registos_2024-01-01_2024-01-31.xlsx")
	assert.NotZero(t, w.Body.Len())
}

// ===== BREAK TESTS =====

func TestBreakHandler_StartAndEnd(t *testing.T) {
	env := newHandlerEnv(t, nil)
	worker := env.token(t, 7, false)

	noEntry := env.do(t, http.MethodPost, "/api/v1/intervalo/iniciarIntervalo", worker, nil)
	assert.Equal(t, http.StatusNotFound, noEntry.Code)

	env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, map[string]string{"empresa": "Acme"})

	env.clock.Set(12, 0)
	start := env.do(t, http.MethodPost, "/api/v1/intervalo/iniciarIntervalo", worker, nil)
	require.Equal(t, http.StatusCreated, start.Code)
	assert.Equal(t, "12:00:00", decodeData(t, start)["hora_inicio"])

	state := env.do(t, http.MethodGet, "/api/v1/registoPonto/estado-ponto", worker, nil)
	require.Equal(t, http.StatusOK, state.Code)
	stateData := decodeData(t, state)
	assert.Equal(t, true, stateData["intervaloAberto"])
	assert.Equal(t, "12:00:00", stateData["horaInicioIntervalo"])

	again := env.do(t, http.MethodPost, "/api/v1/intervalo/iniciarIntervalo", worker, nil)
	assert.Equal(t, http.StatusConflict, again.Code)

	env.clock.Set(12, 30)
	end := env.do(t, http.MethodPost, "/api/v1/intervalo/finalizarIntervalo", worker, nil)
	require.Equal(t, http.StatusOK, end.Code)
	assert.Equal(t, 0.5, decodeData(t, end)["duracao"])

	list := env.do(t, http.MethodGet, "/api/v1/intervalo/registo/1", worker, nil)
	require.Equal(t, http.StatusOK, list.Code)
}

func TestBreakHandler_RateLimited(t *testing.T) {
	env := newHandlerEnv(t, middleware.NewRateLimiter(1, 1))
	worker := env.token(t, 7, false)
	env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, map[string]string{"empresa": "Acme"})

	w := env.do(t, http.MethodPost, "/api/v1/intervalo/iniciarIntervalo", worker, nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// ===== CHANGE REQUEST TESTS =====

func TestChangeRequestHandler_CreateApprove(t *testing.T) {
	env := newHandlerEnv(t, nil)
	worker := env.token(t, 7, false)
	admin := env.token(t, 1, true)
	env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, map[string]string{"empresa": "Acme"})

	created := env.do(t, http.MethodPost, "/api/v1/pedidoAlteracao/pedidos-alteracao", worker, map[string]interface{}{
		"user_id":          99,
		"registo_ponto_id": 1,
		"novaHoraEntrada":  "2024-01-05T07:00:00",
		"motivo":           "Esqueci-me de registar a entrada",
	})
	require.Equal(t, http.StatusCreated, created.Code)
	data := decodeData(t, created)
	assert.Equal(t, "pendente", data["estado"])
	assert.Equal(t, 7.0, data["user_id"])

	forbidden := env.do(t, http.MethodPut, "/api/v1/pedidoAlteracao/aprovar/1", worker, nil)
	assert.Equal(t, http.StatusForbidden, forbidden.Code)

	approved := env.do(t, http.MethodPut, "/api/v1/pedidoAlteracao/aprovar/1", admin, nil)
	require.Equal(t, http.StatusOK, approved.Code)
	assert.Equal(t, "aprovado", decodeData(t, approved)["estado"])

	twice := env.do(t, http.MethodPut, "/api/v1/pedidoAlteracao/rejeitar/1", admin, nil)
	assert.Equal(t, http.StatusConflict, twice.Code)

	missing := env.do(t, http.MethodPut, "/api/v1/pedidoAlteracao/aprovar/99", admin, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestChangeRequestHandler_Create_AdminFilesForEntryOwner(t *testing.T) {
	env := newHandlerEnv(t, nil)
	worker := env.token(t, 7, false)
	admin := env.token(t, 1, true)
	env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, map[string]string{"empresa": "Acme"})

	mismatch := env.do(t, http.MethodPost, "/api/v1/pedidoAlteracao/pedidos-alteracao", admin, map[string]interface{}{
		"user_id":          99,
		"registo_ponto_id": 1,
		"novaHoraEntrada":  "2024-01-05T07:00:00",
		"motivo":           "Correção feita pela administração",
	})
	assert.Equal(t, http.StatusBadRequest, mismatch.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, mismatch))

	created := env.do(t, http.MethodPost, "/api/v1/pedidoAlteracao/pedidos-alteracao", admin, map[string]interface{}{
		"registo_ponto_id": 1,
		"novaHoraEntrada":  "2024-01-05T07:00:00",
		"motivo":           "Correção feita pela administração",
	})
	require.Equal(t, http.StatusCreated, created.Code)
	assert.Equal(t, 7.0, decodeData(t, created)["user_id"])
}

func TestChangeRequestHandler_Create_Validation(t *testing.T) {
	env := newHandlerEnv(t, nil)
	worker := env.token(t, 7, false)
	env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", worker, map[string]string{"empresa": "Acme"})

	w := env.do(t, http.MethodPost, "/api/v1/pedidoAlteracao/pedidos-alteracao", worker, map[string]interface{}{
		"registo_ponto_id": 1,
		"motivo":           "curto",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestChangeRequestHandler_OwnershipAndLifecycle(t *testing.T) {
	env := newHandlerEnv(t, nil)
	owner := env.token(t, 7, false)
	other := env.token(t, 8, false)
	admin := env.token(t, 1, true)
	env.do(t, http.MethodPost, "/api/v1/registoPonto/registar-ponto", owner, map[string]string{"empresa": "Acme"})

	foreign := env.do(t, http.MethodPost, "/api/v1/pedidoAlteracao/pedidos-alteracao", other, map[string]interface{}{
		"registo_ponto_id": 1,
		"novaHoraSaida":    "2024-01-05T18:00",
		"motivo":           "Saída não registada no terminal",
	})
	assert.Equal(t, http.StatusForbidden, foreign.Code)

	created := env.do(t, http.MethodPost, "/api/v1/pedidoAlteracao/pedidos-alteracao", owner, map[string]interface{}{
		"registo_ponto_id": 1,
		"novaHoraSaida":    "2024-01-05T18:00",
		"motivo":           "Saída não registada no terminal",
	})
	require.Equal(t, http.StatusCreated, created.Code)

	peek := env.do(t, http.MethodGet, "/api/v1/pedidoAlteracao/pedidos-alteracao/1", other, nil)
	assert.Equal(t, http.StatusForbidden, peek.Code)

	updated := env.do(t, http.MethodPut, "/api/v1/pedidoAlteracao/pedidos-alteracao/1", owner, map[string]string{
		"motivo": "Saída não registada, terminal avariado",
	})
	require.Equal(t, http.StatusOK, updated.Code)

	mine := env.do(t, http.MethodGet, "/api/v1/pedidoAlteracao/meus", owner, nil)
	require.Equal(t, http.StatusOK, mine.Code)
	assert.Equal(t, 1.0, decodeData(t, mine)["total_count"])

	pending := env.do(t, http.MethodGet, "/api/v1/pedidoAlteracao?estado=pendente", admin, nil)
	require.Equal(t, http.StatusOK, pending.Code)
	assert.Equal(t, 1.0, decodeData(t, pending)["total_count"])

	deleted := env.do(t, http.MethodDelete, "/api/v1/pedidoAlteracao/pedidos-alteracao/1", owner, nil)
	assert.Equal(t, http.StatusOK, deleted.Code)

	gone := env.do(t, http.MethodGet, "/api/v1/pedidoAlteracao/pedidos-alteracao/1", owner, nil)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}
