package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/cache"
	"github.com/dujiao-next/sales-settlement/internal/config"
	"github.com/dujiao-next/sales-settlement/internal/lock"
	"github.com/dujiao-next/sales-settlement/internal/models"
	"github.com/dujiao-next/sales-settlement/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type apiResponse struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupAdminHandlerTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_handler_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrateWith(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	c := provider.NewContainerWithDB(&config.Config{}, db, cache.NewMemoryStore(), lock.NewLocalLocker(), nil)
	h := New(c)

	r := gin.New()
	r.POST("/accounts", h.CreateAccount)
	r.GET("/accounts/:code", h.GetAccount)
	r.POST("/accounts/:code/payouts", h.RecordPayout)
	r.POST("/rate-changes", h.CreateRateChange)
	r.GET("/rates/effective", h.GetEffectiveRate)
	r.POST("/exclusions", h.CreateExclusion)
	r.POST("/exclusions/:target/restore", h.RestoreExclusion)
	r.POST("/orders", h.CreateOrder)
	r.POST("/orders/:id/transition", h.TransitionOrder)
	r.GET("/aggregate", h.Aggregate)
	r.GET("/settlement", h.GetSettlement)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (int, apiResponse) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return w.Code, resp
}

func createConfirmedOrderViaAPI(t *testing.T, r *gin.Engine, salesCode, amount string) {
	t.Helper()
	code, resp := doJSON(t, r, http.MethodPost, "/orders", fmt.Sprintf(`{"sales_code":%q,"amount":%q,"payment_currency":"USD"}`, salesCode, amount))
	if code != http.StatusCreated {
		t.Fatalf("create order want 201 got %d msg=%s", code, resp.Msg)
	}
	var order struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &order); err != nil || order.ID == 0 {
		t.Fatalf("decode order failed: %v", err)
	}
	code, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/orders/%d/transition", order.ID), `{"status":"confirmed_payment"}`)
	if code != http.StatusOK || resp.StatusCode != 0 {
		t.Fatalf("confirm order failed: %d %s", code, resp.Msg)
	}
}

func TestCreateAccountAndDuplicate(t *testing.T) {
	r := setupAdminHandlerTest(t)

	code, resp := doJSON(t, r, http.MethodPost, "/accounts", `{"sales_code":"P1","tier":"primary","name":"Alice"}`)
	if code != http.StatusCreated || resp.StatusCode != 201 {
		t.Fatalf("create account want 201 got http=%d code=%d", code, resp.StatusCode)
	}

	code, resp = doJSON(t, r, http.MethodPost, "/accounts", `{"sales_code":"P1","tier":"primary"}`)
	if code != http.StatusConflict || resp.StatusCode != 409 {
		t.Fatalf("duplicate account want 409 got http=%d code=%d", code, resp.StatusCode)
	}

	_, resp = doJSON(t, r, http.MethodPost, "/accounts", `{"sales_code":"S1","tier":"secondary","parent_code":"NOPE"}`)
	if resp.StatusCode != 400 {
		t.Fatalf("unknown parent want 400 got %d", resp.StatusCode)
	}

	_, resp = doJSON(t, r, http.MethodGet, "/accounts/UNKNOWN", "")
	if resp.StatusCode != 404 {
		t.Fatalf("missing account want 404 got %d", resp.StatusCode)
	}
}

func TestCreateRateChangeConflictAndEffectiveRate(t *testing.T) {
	r := setupAdminHandlerTest(t)
	doJSON(t, r, http.MethodPost, "/accounts", `{"sales_code":"P1","tier":"primary"}`)

	body := `{"sales_code":"P1","new_rate":"0.3","effective_date":"2024-01-01","changed_by":"ops"}`
	code, resp := doJSON(t, r, http.MethodPost, "/rate-changes", body)
	if code != http.StatusCreated {
		t.Fatalf("rate change want 201 got %d msg=%s", code, resp.Msg)
	}
	code, resp = doJSON(t, r, http.MethodPost, "/rate-changes", body)
	if code != http.StatusConflict || resp.StatusCode != 409 {
		t.Fatalf("duplicate effective date want 409 got http=%d code=%d", code, resp.StatusCode)
	}

	_, resp = doJSON(t, r, http.MethodPost, "/rate-changes", `{"sales_code":"P1","new_rate":"1.5","effective_date":"2024-02-01"}`)
	if resp.StatusCode != 400 {
		t.Fatalf("rate out of range want 400 got %d", resp.StatusCode)
	}

	_, resp = doJSON(t, r, http.MethodGet, "/rates/effective?sales_code=P1&as_of=2024-06-01", "")
	var rate struct {
		Rate   string `json:"rate"`
		Source string `json:"source"`
		Known  bool   `json:"known"`
	}
	if err := json.Unmarshal(resp.Data, &rate); err != nil {
		t.Fatalf("decode rate failed: %v", err)
	}
	if rate.Rate != "0.3" || !rate.Known {
		t.Fatalf("expected historical rate 0.3, got %+v", rate)
	}
}

func TestExclusionConflictAndIdempotentRestore(t *testing.T) {
	r := setupAdminHandlerTest(t)

	body := `{"target":"P1","policy":"display","reason":"test account"}`
	code, _ := doJSON(t, r, http.MethodPost, "/exclusions", body)
	if code != http.StatusCreated {
		t.Fatalf("add exclusion want 201 got %d", code)
	}
	code, resp := doJSON(t, r, http.MethodPost, "/exclusions", body)
	if code != http.StatusConflict || resp.StatusCode != 409 {
		t.Fatalf("duplicate exclusion want 409 got http=%d code=%d", code, resp.StatusCode)
	}

	_, resp = doJSON(t, r, http.MethodPost, "/exclusions", `{"target":"P1","policy":"statistics"}`)
	if resp.StatusCode != 400 {
		t.Fatalf("invalid scope want 400 got %d", resp.StatusCode)
	}

	for i, want := range []bool{true, false} {
		code, resp = doJSON(t, r, http.MethodPost, "/exclusions/P1/restore?policy=display", "")
		if code != http.StatusOK || resp.StatusCode != 0 {
			t.Fatalf("restore #%d want 200 got http=%d code=%d", i, code, resp.StatusCode)
		}
		var out struct {
			Restored bool `json:"restored"`
		}
		if err := json.Unmarshal(resp.Data, &out); err != nil {
			t.Fatalf("decode restore failed: %v", err)
		}
		if out.Restored != want {
			t.Fatalf("restore #%d want restored=%v got %v", i, want, out.Restored)
		}
	}
}

func TestAggregatePoliciesHonorDisplayExclusion(t *testing.T) {
	r := setupAdminHandlerTest(t)
	doJSON(t, r, http.MethodPost, "/accounts", `{"sales_code":"P1","tier":"primary","initial_rate":"0.2"}`)
	doJSON(t, r, http.MethodPost, "/accounts", `{"sales_code":"P2","tier":"primary","initial_rate":"0.2"}`)
	createConfirmedOrderViaAPI(t, r, "P1", "100")
	createConfirmedOrderViaAPI(t, r, "P2", "50")

	code, _ := doJSON(t, r, http.MethodPost, "/exclusions", `{"target":"P2","policy":"display"}`)
	if code != http.StatusCreated {
		t.Fatalf("add exclusion want 201 got %d", code)
	}

	decode := func(resp apiResponse) map[string]map[string]interface{} {
		out := map[string]map[string]interface{}{}
		if err := json.Unmarshal(resp.Data, &out); err != nil {
			t.Fatalf("decode aggregate failed: %v", err)
		}
		return out
	}

	_, resp := doJSON(t, r, http.MethodGet, "/aggregate?policy=display", "")
	display := decode(resp)
	if _, ok := display["P2"]; ok {
		t.Fatalf("display policy should hide P2")
	}
	if _, ok := display["P1"]; !ok {
		t.Fatalf("display policy should include P1")
	}

	_, resp = doJSON(t, r, http.MethodGet, "/aggregate?policy=statistics", "")
	stats := decode(resp)
	if _, ok := stats["P2"]; !ok {
		t.Fatalf("statistics policy should keep display-only exclusion P2")
	}
	if got := fmt.Sprint(stats["P1"]["commission_amount"]); got != "20" {
		t.Fatalf("P1 commission want 20 got %s", got)
	}

	_, resp = doJSON(t, r, http.MethodGet, "/aggregate?policy=unknown", "")
	if resp.StatusCode != 400 {
		t.Fatalf("invalid policy want 400 got %d", resp.StatusCode)
	}

	_, resp = doJSON(t, r, http.MethodGet, "/settlement?sales_code=P2", "")
	if resp.StatusCode != 404 {
		t.Fatalf("settlement of display-excluded account want 404 got %d", resp.StatusCode)
	}
}

func TestRecordPayoutValidatesAmount(t *testing.T) {
	r := setupAdminHandlerTest(t)
	doJSON(t, r, http.MethodPost, "/accounts", `{"sales_code":"P1","tier":"primary"}`)

	_, resp := doJSON(t, r, http.MethodPost, "/accounts/P1/payouts", `{"amount":"0"}`)
	if resp.StatusCode != 400 {
		t.Fatalf("zero payout want 400 got %d", resp.StatusCode)
	}
	code, _ := doJSON(t, r, http.MethodPost, "/accounts/P1/payouts", `{"amount":"12.5","operator":"finance"}`)
	if code != http.StatusCreated {
		t.Fatalf("payout want 201 got %d", code)
	}
}
