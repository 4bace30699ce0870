package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"CrossImpact/internal/domain/models"
	"CrossImpact/internal/usecase"
	"CrossImpact/pkg/logger"
)

type apiEnvelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type appErrorPayload struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params"`
}

func invoke(t *testing.T, h echo.HandlerFunc, target string) apiEnvelope {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	var env apiEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func appErrors(t *testing.T, env apiEnvelope) []appErrorPayload {
	t.Helper()
	var errs []appErrorPayload
	if err := json.Unmarshal(env.Data, &errs); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	return errs
}

func TestReportBeforeFirstRun(t *testing.T) {
	h := NewResultsEchoHandler(logger.Nop(), usecase.NewReportStore())

	env := invoke(t, h.Report, "/api/report")
	if env.Status != http.StatusNotFound {
		t.Fatalf("want envelope status 404, got %d", env.Status)
	}
	errs := appErrors(t, env)
	if len(errs) != 1 || errs[0].Code != "ERR_NOT_FOUND" {
		t.Fatalf("want single ERR_NOT_FOUND, got %+v", errs)
	}
}

func TestCompositeUnknownSymbol(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	store := usecase.NewReportStore()
	store.Set(&models.BatchReport{
		StartedAt:  t0,
		FinishedAt: t0.Add(time.Second),
		Composite: map[string][]models.CompositeOFIRecord{
			"AAA": {{Symbol: "AAA", Timestamp: t0, Score: 1.5}},
		},
	})
	h := NewResultsEchoHandler(logger.Nop(), store)

	env := invoke(t, h.Composite, "/api/composite?symbol=ZZZ")
	if env.Status != http.StatusNotFound {
		t.Fatalf("want envelope status 404, got %d", env.Status)
	}
	errs := appErrors(t, env)
	if len(errs) != 1 || errs[0].Code != "ERR_NOT_FOUND" {
		t.Fatalf("want single ERR_NOT_FOUND, got %+v", errs)
	}
	if errs[0].Params["symbol"] != "ZZZ" {
		t.Fatalf("error params must name the symbol, got %+v", errs[0].Params)
	}

	env = invoke(t, h.Composite, "/api/composite?symbol=AAA")
	if env.Status != http.StatusOK {
		t.Fatalf("known symbol must succeed, got %d", env.Status)
	}
}

func TestRegressionsFilterByTarget(t *testing.T) {
	store := usecase.NewReportStore()
	store.Set(&models.BatchReport{
		Regressions: []models.RegressionResult{
			{TargetSymbol: "AAA", Horizon: time.Minute, Mode: models.ModeContemporaneous},
			{TargetSymbol: "BBB", Horizon: time.Minute, Mode: models.ModeContemporaneous},
		},
	})
	h := NewResultsEchoHandler(logger.Nop(), store)

	env := invoke(t, h.Regressions, "/api/regressions?target=BBB")
	if env.Status != http.StatusOK {
		t.Fatalf("want envelope status 200, got %d", env.Status)
	}
	var list struct {
		Rows  []models.RegressionResult `json:"rows"`
		Total int64                     `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Rows) != 1 || list.Rows[0].TargetSymbol != "BBB" {
		t.Fatalf("want only BBB's unit, got %+v", list)
	}
}
