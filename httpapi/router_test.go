package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/mfe"
	"github.com/GoCodeAlone/mfe/manifest"
)

func newTestServer(t *testing.T) (*httptest.Server, *mfe.Runtime) {
	t.Helper()
	rt := mfe.NewRuntime(nil, nil)
	t.Cleanup(rt.Close)

	m := &manifest.Manifest{Units: []manifest.UnitSpec{
		{Name: "navbar", Routes: []string{"/"}},
		{Name: "settings", Routes: []string{"/settings"}},
	}}
	require.NoError(t, m.Populate(rt))

	srv := httptest.NewServer(NewRouter(rt, nil))
	t.Cleanup(srv.Close)
	return srv, rt
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/healthz", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestUnits(t *testing.T) {
	srv, rt := newTestServer(t)
	u, _ := rt.Unit("settings")
	u.Transition(mfe.StatusMounted)

	var units []mfe.UnitSnapshot
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/units", &units))
	require.Len(t, units, 2)
	assert.Equal(t, "navbar", units[0].Name)

	var unit mfe.UnitSnapshot
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/units/settings", &unit))
	assert.Equal(t, mfe.StatusMounted, unit.Status)
	assert.True(t, unit.Active)

	var missing errorResponse
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/units/nope", &missing))
	assert.Contains(t, missing.Error, "nope")
}

func TestChanges(t *testing.T) {
	srv, _ := newTestServer(t)

	var changes ChangesResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/changes?location=/settings/profile", &changes))
	assert.Equal(t, []string{"navbar", "settings"}, changes.ToLoad)
	assert.Empty(t, changes.ToMount)
	assert.Empty(t, changes.ToUnmount)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/changes", nil))
}

func TestErrorCode(t *testing.T) {
	srv, _ := newTestServer(t)

	var entry ErrorCodeResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/error/?code=23&arg=navbar", &entry))
	assert.Equal(t, 23, entry.Code)
	assert.Equal(t, "There is already a unit registered with the name 'navbar'", entry.Message)
	assert.Equal(t, []string{"navbar"}, entry.Args)

	parsed, err := mfe.ParseErrorMessage(entry.Formatted)
	require.NoError(t, err)
	assert.Equal(t, 23, parsed.Code)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/error?code=abc", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/error?code=999", nil))
}
