package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajha/inventory-engine/api"
	"github.com/sajha/inventory-engine/docflow"
	memstore "github.com/sajha/inventory-engine/docflow/store"
	"github.com/sajha/inventory-engine/supplies"
	"github.com/sajha/inventory-engine/vaccine"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	catalog := supplies.NewMemoryCatalog(supplies.Item{
		Name:           "Executive Chair",
		Code:           "CH-1",
		Classification: docflow.NonExpendable,
		Unit:           "pcs",
		Rate:           decimal.NewFromInt(8500),
	})
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	h := api.NewHandler(
		supplies.NewService(memstore.NewMemory(), catalog, nil),
		vaccine.NewRegistry(vaccine.NewMemory()),
		catalog,
		log,
	)
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = nil
	}
	return resp, decoded
}

func actorBody(name, role string) map[string]any {
	return map[string]any{"name": name, "designation": "Officer", "role": role}
}

func demandBody() map[string]any {
	return map[string]any{
		"date":        "2081-05-02",
		"holder_name": "Ram Bahadur",
		"lines": []map[string]any{
			{"item_name": "Executive Chair", "item_code": "CH-1", "quantity": "2"},
		},
		"actor": actorBody("Ram Bahadur", "staff"),
	}
}

// =============================================================================
// FORM LIFECYCLE OVER HTTP
// =============================================================================

func TestCreateDemand_AssignsNumberAndEnriches(t *testing.T) {
	srv := newTestServer(t)

	// WHEN a staff member files a demand
	resp, doc := doJSON(t, http.MethodPost, srv.URL+"/api/forms/demand", demandBody())

	// THEN it is created pending with a form number and catalog enrichment
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "0001", doc["form_no"])
	assert.Equal(t, "2081/82", doc["fiscal_year"])
	assert.Equal(t, "pending", doc["status"])

	lines := doc["lines"].([]any)
	line := lines[0].(map[string]any)
	assert.Equal(t, "pcs", line["unit"], "unit filled from the catalog")
	assert.Equal(t, "8500", line["rate"])
	assert.Equal(t, "non_expendable", line["classification"])
}

func TestDemandChain_VerifyApproveIssue(t *testing.T) {
	srv := newTestServer(t)

	_, doc := doJSON(t, http.MethodPost, srv.URL+"/api/forms/demand", demandBody())
	id := doc["id"].(string)
	base := srv.URL + "/api/forms/demand/" + id

	resp, doc := doJSON(t, http.MethodPost, base+"/transitions", map[string]any{
		"action":      "verify",
		"actor":       actorBody("Hari", "storekeeper"),
		"fulfillment": map[string]any{"from_stock": true, "store_name": "Main Store"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "verified", doc["status"])

	resp, doc = doJSON(t, http.MethodPost, base+"/transitions", map[string]any{
		"action": "approve",
		"actor":  actorBody("Sita", "approval"),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", doc["status"])

	resp, doc = doJSON(t, http.MethodPost, base+"/transitions", map[string]any{
		"action": "issue",
		"actor":  actorBody("Hari", "storekeeper"),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "issued", doc["status"])

	slots := doc["slots"].(map[string]any)
	assert.Contains(t, slots, "requester")
	assert.Contains(t, slots, "verifier")
	assert.Contains(t, slots, "approver")
	assert.Contains(t, slots, "recipient")

	// AND the issued chair appears in the holdings report
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/holdings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTransition_RoleGateReturns403(t *testing.T) {
	srv := newTestServer(t)

	_, doc := doJSON(t, http.MethodPost, srv.URL+"/api/forms/demand", demandBody())
	id := doc["id"].(string)

	// Staff cannot verify their own demand.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/forms/demand/"+id+"/transitions", map[string]any{
		"action":      "verify",
		"actor":       actorBody("Ram Bahadur", "staff"),
		"fulfillment": map[string]any{"from_stock": true},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestTransition_WrongStateReturns400(t *testing.T) {
	srv := newTestServer(t)

	_, doc := doJSON(t, http.MethodPost, srv.URL+"/api/forms/demand", demandBody())
	id := doc["id"].(string)

	// Approve straight from pending skips verification.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/forms/demand/"+id+"/transitions", map[string]any{
		"action": "approve",
		"actor":  actorBody("Sita", "approval"),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReject_ThenSeenClearsFlag(t *testing.T) {
	srv := newTestServer(t)

	_, doc := doJSON(t, http.MethodPost, srv.URL+"/api/forms/demand", demandBody())
	id := doc["id"].(string)
	base := srv.URL + "/api/forms/demand/" + id

	resp, doc := doJSON(t, http.MethodPost, base+"/transitions", map[string]any{
		"action": "reject",
		"actor":  actorBody("Hari", "storekeeper"),
		"reason": "budget exhausted",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rejection := doc["rejection"].(map[string]any)
	assert.Equal(t, true, rejection["unseen_by_requester"])

	resp, doc = doJSON(t, http.MethodPost, base+"/seen", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rejection = doc["rejection"].(map[string]any)
	assert.Equal(t, false, rejection["unseen_by_requester"])
}

func TestCreateForm_ValidationFailures(t *testing.T) {
	srv := newTestServer(t)

	// Missing lines
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/forms/demand", map[string]any{
		"date":  "2081-05-02",
		"lines": []map[string]any{},
		"actor": actorBody("Ram", "staff"),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Malformed BS date
	body := demandBody()
	body["date"] = "2081-13-45"
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/forms/demand", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown kind
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/forms/bogus", demandBody())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteForm_DemandOnly(t *testing.T) {
	srv := newTestServer(t)

	_, doc := doJSON(t, http.MethodPost, srv.URL+"/api/forms/demand", demandBody())
	id := doc["id"].(string)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/forms/demand/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/forms/demand/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// CATALOG
// =============================================================================

func TestItems_CreateAndList(t *testing.T) {
	srv := newTestServer(t)

	resp, item := doJSON(t, http.MethodPost, srv.URL+"/api/items", map[string]any{
		"name":           "A4 Paper",
		"code":           "PP-2",
		"classification": "expendable",
		"unit":           "ream",
		"quantity":       "120",
		"rate":           "550",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "A4 Paper", item["name"])

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/items", nil)
	require.NoError(t, err)
	listResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer listResp.Body.Close()

	var items []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&items))
	assert.Len(t, items, 2) // seeded chair + new paper
}

// =============================================================================
// PATIENTS
// =============================================================================

func TestPatients_RegisterAndConfirm(t *testing.T) {
	srv := newTestServer(t)

	resp, p := doJSON(t, http.MethodPost, srv.URL+"/api/patients", map[string]any{
		"name":          "Maya Gurung",
		"registered_at": "2081-02-19", // AD 2024-06-01
		"regimen":       "intramuscular",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	doses := p["doses"].([]any)
	require.Len(t, doses, 5)
	first := doses[0].(map[string]any)
	assert.Equal(t, "2024-06-01", first["scheduled_at"])
	last := doses[4].(map[string]any)
	assert.Equal(t, "2024-06-29", last["scheduled_at"])

	id := p["id"].(string)

	// Dose 0 on any date is fine.
	resp, p = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/patients/%s/doses/0/confirm", srv.URL, id),
		map[string]any{"given_at": "2024-05-30"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doses = p["doses"].([]any)
	assert.Equal(t, "given", doses[0].(map[string]any)["status"])

	// A later dose before its scheduled date is refused.
	resp, _ = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/patients/%s/doses/1/confirm", srv.URL, id),
		map[string]any{"given_at": "2024-06-02"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown patient
	resp, _ = doJSON(t, http.MethodPost,
		srv.URL+"/api/patients/nope/doses/0/confirm",
		map[string]any{"given_at": "2024-06-02"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestCalendar_Convert(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/calendar/convert?bs=2081-01-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2024-04-13", body["ad"])
	assert.Equal(t, "Saturday", body["weekday"])
	assert.Equal(t, "2080/81", body["fiscal_year"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/calendar/convert?ad=2024-04-13", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2081-01-01", body["bs"])

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/calendar/convert?bs=1999-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/calendar/convert", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
