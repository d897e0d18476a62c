package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"barberly/config"
	bookingRepo "barberly/database/repository/booking"
	directoryRepo "barberly/database/repository/directory"
	"barberly/handlers"
	"barberly/models"
	"barberly/services/booking"
	"barberly/services/notification"
	"barberly/services/payment"
	"barberly/services/scheduling"
	"barberly/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTSecret = "routes-test-secret"
	ctx := context.Background()

	dir := directoryRepo.NewMemoryDirectoryRepo()
	require.NoError(t, dir.UpsertService(ctx, &models.Service{
		ID: "svc-cut", Name: "Skin fade", Type: models.ServiceTypeShop, Duration: 30, Price: 20, Currency: "usd",
	}))
	require.NoError(t, dir.UpsertProvider(ctx, &models.Provider{
		ID:           "indie-1",
		DisplayName:  "Baraka",
		Status:       models.ProviderActive,
		Capabilities: []models.ServiceType{models.ServiceTypeShop},
		ServiceIDs:   []string{"svc-cut"},
		Schedule:     scheduling.WeeklySchedule("indie-1", 9*60, 17*60, time.Monday, time.Wednesday),
	}))
	require.NoError(t, dir.UpsertCustomer(ctx, &models.Customer{ID: "cust-1", DisplayName: "Amani"}))

	logger := zap.NewNop()
	svc, err := booking.NewDefaultBookingService(
		bookingRepo.NewMemoryBookingRepo(),
		dir,
		payment.NewStripeGateway("", "usd", logger),
		&notification.LogSink{Logger: logger},
		logger,
	)
	require.NoError(t, err)
	svc.Clock = func() time.Time { return time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC) }

	r := gin.New()
	RegisterRoutes(r, handlers.NewHandlerBundle(handlers.NewBookingHandler(svc)))
	return r
}

func bearer(t *testing.T, id string, role models.Role) string {
	t.Helper()
	token, err := utils.GenerateToken(id, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func call(r *gin.Engine, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBookingFlowOverHTTP(t *testing.T) {
	r := newServer(t)
	cust := bearer(t, "cust-1", models.RoleCustomer)
	prov := bearer(t, "indie-1", models.RoleProvider)

	w := call(r, http.MethodGet, "/api/providers/indie-1/slots?serviceId=svc-cut&date=2025-06-04", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var slots models.SlotsResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	assert.Equal(t, models.DayAvailable, slots.DayStatus)
	assert.NotEmpty(t, slots.Slots)

	body := `{"providerId":"indie-1","serviceId":"svc-cut","serviceType":"shopBased","date":"2025-06-04","time":"10:00","payment":{"kind":"cash"}}`
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/api/bookings", prov, body).Code)

	w = call(r, http.MethodPost, "/api/bookings", cust, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.StatusPending, created.Status)

	w = call(r, http.MethodPost, "/api/bookings", cust, body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"slotUnavailable"`)

	w = call(r, http.MethodPost, "/api/bookings/"+created.ID+"/accept", prov, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"confirmed"`)

	w = call(r, http.MethodPost, "/api/bookings/"+created.ID+"/accept", prov, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(r, http.MethodGet, "/api/bookings/"+created.UID, cust, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(r, http.MethodGet, "/api/customers/cust-1/bookings", cust, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.ID)

	w = call(r, http.MethodGet, "/api/providers/indie-1/bookings?date=2025-06-04", prov, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.ID)

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/api/bookings/"+created.ID, "", "").Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	r := newServer(t)
	provider := `{"id":"indie-2","displayName":"Kip","capabilities":["shopBased"],"serviceIds":["svc-cut"]}`

	w := call(r, http.MethodPost, "/api/admin/providers", bearer(t, "cust-1", models.RoleCustomer), provider)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(r, http.MethodPost, "/api/admin/providers", bearer(t, "admin-1", models.RoleAdmin), provider)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"active"`)
}

func TestHealthAndMetrics(t *testing.T) {
	r := newServer(t)

	w := call(r, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = call(r, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
