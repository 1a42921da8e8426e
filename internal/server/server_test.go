package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	entrysummarydomain "github.com/smallbiznis/ftzflow/internal/entrysummary/domain"
	"github.com/smallbiznis/ftzflow/internal/observability"
	preshipmentdomain "github.com/smallbiznis/ftzflow/internal/preshipment/domain"
	"github.com/smallbiznis/ftzflow/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPreshipments struct {
	preshipmentdomain.Service

	stage       preshipmentdomain.Stage
	transitions []preshipmentdomain.Stage
	signoff     *preshipmentdomain.SignoffRequest
}

func (s *stubPreshipments) Get(_ context.Context, shipmentID string) (preshipmentdomain.Preshipment, error) {
	if shipmentID != "SHP-1" {
		return preshipmentdomain.Preshipment{}, preshipmentdomain.ErrNotFound
	}
	return preshipmentdomain.Preshipment{ShipmentID: shipmentID, Stage: s.stage}, nil
}

func (s *stubPreshipments) TransitionStage(_ context.Context, shipmentID string, target preshipmentdomain.Stage) (preshipmentdomain.Preshipment, error) {
	if err := preshipmentdomain.ValidateTransition(s.stage, target); err != nil {
		return preshipmentdomain.Preshipment{}, err
	}
	s.transitions = append(s.transitions, target)
	s.stage = target
	return preshipmentdomain.Preshipment{ShipmentID: shipmentID, Stage: target}, nil
}

func (s *stubPreshipments) FinalizeShipment(_ context.Context, shipmentID string, req preshipmentdomain.SignoffRequest) (preshipmentdomain.Preshipment, error) {
	s.signoff = &req
	return preshipmentdomain.Preshipment{}, validation.Missing(preshipmentdomain.ErrMissingSignoffFields, "driver_license_number")
}

type stubEntrySummaries struct {
	entrysummarydomain.Service

	approvedGroup snowflake.ID
	approver      string
}

func (s *stubEntrySummaries) BuildFromPreshipment(_ context.Context, shipmentID string) (entrysummarydomain.BuildResult, error) {
	return entrysummarydomain.BuildResult{}, entrysummarydomain.ErrAlreadyFiled
}

func (s *stubEntrySummaries) ApproveGroup(_ context.Context, groupID snowflake.ID, approver string) (entrysummarydomain.Group, error) {
	s.approvedGroup = groupID
	s.approver = approver
	return entrysummarydomain.Group{ID: groupID, Status: entrysummarydomain.GroupStatusApproved, ApprovedBy: approver}, nil
}

func (s *stubEntrySummaries) Get(_ context.Context, entryNumber string) (entrysummarydomain.EntrySummary, error) {
	if entryNumber != "FTZ250000001" {
		return entrysummarydomain.EntrySummary{}, entrysummarydomain.ErrNotFound
	}
	return entrysummarydomain.EntrySummary{EntryNumber: entryNumber, FilingStatus: entrysummarydomain.FilingStatusDraft}, nil
}

func newTestServer(t *testing.T) (*gin.Engine, *stubPreshipments, *stubEntrySummaries) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	presh := &stubPreshipments{stage: preshipmentdomain.StagePlanning}
	entries := &stubEntrySummaries{}
	srv := NewServer(ServerParams{
		Gin:             NewEngine(observability.Config{}),
		PreshipmentSvc:  presh,
		EntrySummarySvc: entries,
	})
	return srv.Engine(), presh, entries
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var payload map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	}
	return w, payload
}

func errorField(t *testing.T, payload map[string]any, key string) any {
	t.Helper()
	errObj, ok := payload["error"].(map[string]any)
	require.True(t, ok, "missing error object in %v", payload)
	return errObj[key]
}

func TestHealth(t *testing.T) {
	r, _, _ := newTestServer(t)

	w, payload := doJSON(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", payload["status"])
}

func TestGetPreshipmentNotFound(t *testing.T) {
	r, _, _ := newTestServer(t)

	w, payload := doJSON(t, r, http.MethodGet, "/api/preshipments/SHP-404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorField(t, payload, "type"))
}

func TestTransitionStage(t *testing.T) {
	r, presh, _ := newTestServer(t)

	w, payload := doJSON(t, r, http.MethodPost, "/api/preshipments/SHP-1/stage", `{"stage":"Picking"}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "Picking", data["stage"])
	assert.Equal(t, []preshipmentdomain.Stage{preshipmentdomain.StagePicking}, presh.transitions)

	w, payload = doJSON(t, r, http.MethodPost, "/api/preshipments/SHP-1/stage", `{"stage":"Shipped"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "state_error", errorField(t, payload, "type"))
	assert.Equal(t, "invalid_transition", errorField(t, payload, "code"))
}

func TestTransitionStageRejectsUnknownStage(t *testing.T) {
	r, presh, _ := newTestServer(t)

	w, payload := doJSON(t, r, http.MethodPost, "/api/preshipments/SHP-1/stage", `{"stage":"Teleported"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", errorField(t, payload, "type"))
	assert.Empty(t, presh.transitions)
}

func TestFinalizeShipmentReportsMissingFields(t *testing.T) {
	r, presh, _ := newTestServer(t)

	w, payload := doJSON(t, r, http.MethodPost, "/api/preshipments/SHP-1/signoff",
		`{"driver_name":"Jane Roe","license_plate_number":"abc-1234"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_signoff_fields", errorField(t, payload, "code"))

	fields := errorField(t, payload, "errors").([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "driver_license_number", fields[0].(map[string]any)["field"])

	require.NotNil(t, presh.signoff)
	assert.Equal(t, "Jane Roe", presh.signoff.DriverName)
}

func TestBuildEntrySummaryConflict(t *testing.T) {
	r, _, _ := newTestServer(t)

	w, payload := doJSON(t, r, http.MethodPost, "/api/preshipments/SHP-1/entry-summary", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, entrysummarydomain.ErrAlreadyFiled.Error(), errorField(t, payload, "code"))
}

func TestApproveEntryGroup(t *testing.T) {
	r, _, entries := newTestServer(t)

	w, payload := doJSON(t, r, http.MethodPost, "/api/entry-groups/42/approve", `{"approved_by":" broker@example.com "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, snowflake.ID(42), entries.approvedGroup)
	assert.Equal(t, "broker@example.com", entries.approver)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "approved", data["status"])
}

func TestEntryGroupRejectsBadID(t *testing.T) {
	r, _, entries := newTestServer(t)

	w, payload := doJSON(t, r, http.MethodPost, "/api/entry-groups/abc/approve", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := errorField(t, payload, "errors").([]any)
	assert.Equal(t, "invalid_id", fields[0].(map[string]any)["code"])
	assert.Zero(t, entries.approvedGroup)
}

func TestGetEntrySummary(t *testing.T) {
	r, _, _ := newTestServer(t)

	w, payload := doJSON(t, r, http.MethodGet, "/api/entry-summaries/FTZ250000001", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "FTZ250000001", data["entry_number"])
	assert.Equal(t, "DRAFT", data["filing_status"])

	w, _ = doJSON(t, r, http.MethodGet, "/api/entry-summaries/FTZ259999999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	r, _, _ := newTestServer(t)

	w, payload := doJSON(t, r, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorField(t, payload, "type"))
}

func TestMapErrorClassifiesDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		typ    string
		code   string
	}{
		{"transition", &preshipmentdomain.TransitionError{From: preshipmentdomain.StagePlanning, To: preshipmentdomain.StageShipped}, http.StatusConflict, "state_error", "invalid_transition"},
		{"shipped without signoff", fmt.Errorf("%w: Staged -> Shipped", preshipmentdomain.ErrSignoffRequired), http.StatusConflict, "state_error", "signoff_required"},
		{"wrapped group status", fmt.Errorf("approve: %w", entrysummarydomain.ErrInvalidGroupStatus), http.StatusConflict, "state_error", entrysummarydomain.ErrInvalidGroupStatus.Error()},
		{"invalid customer", preshipmentdomain.ErrInvalidCustomer, http.StatusBadRequest, "validation_error", preshipmentdomain.ErrInvalidCustomer.Error()},
		{"missing group", entrysummarydomain.ErrGroupNotFound, http.StatusNotFound, "not_found", ""},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := mapError(tc.err)
			typ, code := classifyErrorForLog(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.typ, typ)
			assert.Equal(t, tc.code, code)
		})
	}
}
