package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-explorer/internal/dataset"
	"account-explorer/internal/models"
	"account-explorer/internal/view"
)

const accountsCSV = `Customer,WSC_SAM,State,Zip,Email
Acme,Ann,wi,54401-1234,ann@acme.test
Acme,Ann,MN,55401,
Beta,Bob,WI,54403,bob@beta.test
`

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedGeocoder map[string]models.GeoPoint

func (g fixedGeocoder) Resolve(_ context.Context, _ []string) map[string]models.GeoPoint {
	return g
}

// client replays the session cookie across requests like a browser would.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies []*http.Cookie
}

func (cl *client) do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	cl.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	cl.h.ServeHTTP(w, req)
	if cs := w.Result().Cookies(); len(cs) > 0 {
		cl.cookies = cs
	}
	return w
}

func (cl *client) json(method, path, body string) *httptest.ResponseRecorder {
	return cl.do(method, path, "application/json", strings.NewReader(body))
}

func (cl *client) form(path string, vals url.Values) *httptest.ResponseRecorder {
	return cl.do(http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(vals.Encode()))
}

func (cl *client) view() view.View {
	cl.t.Helper()
	w := cl.do(http.MethodGet, "/api/view", "", nil)
	require.Equal(cl.t, http.StatusOK, w.Code, w.Body.String())
	var v view.View
	require.NoError(cl.t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func writeAccounts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newClient(t *testing.T, path string) *client {
	t.Helper()
	srv := New(Options{
		Source:        dataset.NewFileSource(path, "Database"),
		Geocoder:      fixedGeocoder{"54401": {Lat: 44.95, Lon: -89.63}},
		SessionSecret: "test-secret-0123456789",
	})
	return &client{t: t, h: srv.Router()}
}

// candidates looks a list up by name: the dimension index is not serialized.
func candidates(v view.View, d models.Dimension) []string {
	for _, c := range v.Candidates {
		if c.Name == d.String() {
			return c.Values
		}
	}
	return nil
}

func TestViewSelectionAndReset(t *testing.T) {
	cl := newClient(t, writeAccounts(t, accountsCSV))

	v := cl.view()
	assert.Equal(t, 3, v.Count)
	assert.Equal(t, []string{"Acme", "Beta"}, candidates(v, models.DimCustomer))
	assert.NotEmpty(t, cl.cookies, "first request issues a session cookie")

	w := cl.json(http.MethodPost, "/api/selection", `{"customers":["Acme"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	v = cl.view()
	assert.Equal(t, 2, v.Count)
	assert.Equal(t, []string{"MN", "WI"}, candidates(v, models.DimState))
	assert.Equal(t, []string{"54401", "55401"}, candidates(v, models.DimZip))
	assert.Equal(t, 1, v.Map.Mapped)
	assert.Equal(t, 1, v.Map.Unmapped)

	cl.json(http.MethodPost, "/api/selection", `{"search":"BOB","map_mode":"heatmap"}`)
	v = cl.view()
	assert.Zero(t, v.Count)
	assert.Equal(t, []string{"Acme"}, v.Selection.Customers, "partial update keeps other fields")
	assert.True(t, v.Map.Empty)
	assert.Equal(t, models.MapDensity, v.Map.Mode)

	w = cl.json(http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	v = cl.view()
	assert.Equal(t, 3, v.Count)
	assert.True(t, v.Selection.IsZero())
}

func TestSessionsAreIndependent(t *testing.T) {
	path := writeAccounts(t, accountsCSV)
	a := newClient(t, path)
	b := &client{t: t, h: a.h}

	a.json(http.MethodPost, "/api/selection", `{"states":["MN"]}`)
	assert.Equal(t, 1, a.view().Count)
	assert.Equal(t, 3, b.view().Count)
}

func TestCandidatesEndpoint(t *testing.T) {
	cl := newClient(t, writeAccounts(t, accountsCSV))
	cl.json(http.MethodPost, "/api/selection", `{"customers":["Beta"]}`)

	w := cl.do(http.MethodGet, "/api/candidates/sam", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cs struct {
		Values []string `json:"values"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cs))
	assert.Equal(t, []string{"Bob"}, cs.Values)

	w = cl.do(http.MethodGet, "/api/candidates/region", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBadSelectionRequests(t *testing.T) {
	cl := newClient(t, writeAccounts(t, accountsCSV))

	assert.Equal(t, http.StatusBadRequest, cl.json(http.MethodPost, "/api/selection", `{"map_mode":"globe"}`).Code)
	assert.Equal(t, http.StatusBadRequest, cl.json(http.MethodPost, "/api/selection", `{"customers":`).Code)
}

func TestExportCSV(t *testing.T) {
	cl := newClient(t, writeAccounts(t, accountsCSV))
	cl.json(http.MethodPost, "/api/selection", `{"customers":["Acme"],"stakeholders":["Email"]}`)

	w := cl.do(http.MethodGet, "/export.csv", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Filtered_Accounts.csv")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	records, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Customer", "WSC_SAM", "State", "Zip", "Email"},
		{"Acme", "Ann", "WI", "54401", "ann@acme.test"},
		{"Acme", "Ann", "MN", "55401", ""},
	}, records)
}

func TestExportXLSX(t *testing.T) {
	cl := newClient(t, writeAccounts(t, accountsCSV))

	w := cl.do(http.MethodGet, "/export.xlsx", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Filtered_Accounts.xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip container")
}

func TestMissingSourceIsUnavailable(t *testing.T) {
	cl := newClient(t, filepath.Join(t.TempDir(), "missing.xlsx"))

	w := cl.do(http.MethodGet, "/api/view", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])

	w = cl.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Account data unavailable")
	assert.NotContains(t, w.Body.String(), "matching records")

	assert.Equal(t, http.StatusServiceUnavailable, cl.do(http.MethodGet, "/export.csv", "", nil).Code)
}

func TestDashboardForm(t *testing.T) {
	cl := newClient(t, writeAccounts(t, accountsCSV))

	w := cl.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Showing 3 matching records")

	w = cl.form("/", url.Values{"customer": {"Acme"}, "stakeholder": {"Email"}, "map_mode": {"density"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = cl.do(http.MethodGet, "/", "", nil)
	body := w.Body.String()
	assert.Contains(t, body, "Showing 2 matching records")
	assert.Contains(t, body, `<option value="Acme" selected>`)
	assert.Contains(t, body, "<th>Email</th>")

	w = cl.form("/reset", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	w = cl.do(http.MethodGet, "/", "", nil)
	assert.Contains(t, w.Body.String(), "Showing 3 matching records")
	assert.NotContains(t, w.Body.String(), "<th>Email</th>")
}

func TestDashboardNoLocationsNotice(t *testing.T) {
	cl := newClient(t, writeAccounts(t, accountsCSV))
	cl.json(http.MethodPost, "/api/selection", `{"customers":["Beta"]}`)

	w := cl.do(http.MethodGet, "/", "", nil)
	assert.Contains(t, w.Body.String(), "No mappable locations for current filters.")
	assert.Contains(t, w.Body.String(), "<td>54403</td>")
}

func TestReload(t *testing.T) {
	path := writeAccounts(t, accountsCSV)
	cl := newClient(t, path)
	assert.Equal(t, 3, cl.view().Count)

	require.NoError(t, os.WriteFile(path, []byte(accountsCSV+"Gamma,Gus,IL,60601,\n"), 0o644))
	assert.Equal(t, 3, cl.view().Count, "dataset stays cached until reload")

	w := cl.do(http.MethodPost, "/api/reload", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, cl.view().Count)
}

func TestHealthAndMetrics(t *testing.T) {
	cl := newClient(t, writeAccounts(t, accountsCSV))

	w := cl.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	cl.view()
	w = cl.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "explorer_views_total")
}
