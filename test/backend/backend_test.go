package backend

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luno/jettison/jtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtilizationColor(t *testing.T) {
	testCases := []struct {
		u     string
		color string
		label string
	}{
		{u: "0", color: "Gray", label: ""},
		{u: "0.1", color: "Gray", label: "0.1"},
		{u: "0.15", color: "LightGray", label: "0.15"},
		{u: "0.333", color: "ForestGreen", label: "0.33"},
		{u: "0.5", color: "Gold", label: "0.5"},
		{u: "0.9", color: "OrangeRed", label: "0.9"},
		{u: "0.95", color: "Indigo", label: "0.95"},
		{u: "1.4", color: "Indigo", label: "1.4"},
	}
	for _, tc := range testCases {
		t.Run(tc.u, func(t *testing.T) {
			u := decimal.RequireFromString(tc.u)
			assert.Equal(t, tc.color, UtilizationColor(u))
			assert.Equal(t, tc.label, UtilizationLabel(u))
		})
	}
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	resp, err := http.Get(srv.URL + path)
	jtest.RequireNil(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	jtest.RequireNil(t, err)
	return resp.StatusCode, string(b)
}

func TestBackendMessages(t *testing.T) {
	b := New()
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	code, body := get(t, srv, "/message")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, MsgReady, body)

	_, body = get(t, srv, "/message")
	assert.Empty(t, body)

	resp, err := http.Post(srv.URL+"/load", "application/json",
		bytes.NewBufferString(`{"inputFileName":"5n","model":"migration","constraints":{}}`))
	jtest.RequireNil(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = get(t, srv, "/message")
	assert.Equal(t, MsgTopologyLoaded, body)
	require.Len(t, b.Scenarios(), 1)
	assert.Equal(t, "migration", b.Scenarios()[0].Model)

	b.SetDown(true)
	code, _ = get(t, srv, "/message")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, 4, b.Hits("message"))
}

func TestSetUtilization(t *testing.T) {
	b := New()
	assert.True(t, b.SetUtilization("s2", decimal.RequireFromString("0.55")))
	assert.True(t, b.SetUtilization("l1", decimal.RequireFromString("0.05")))
	assert.False(t, b.SetUtilization("n1", decimal.RequireFromString("0.5")))

	assert.Equal(t, "GoldenRod", b.Servers()[1].Data.FaveColor)
	assert.Equal(t, "0.55", b.Servers()[1].Data.Label)
	assert.Equal(t, "Gray", b.Links()[0].Data.FaveColor)
	assert.Equal(t, "0.05", b.Links()[0].Data.Label)
}
