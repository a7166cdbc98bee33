package fakebackend

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	anonKey    = "anon-test-key"
	serviceKey = "service-test-key"
)

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	opts.AnonKey = anonKey
	opts.ServiceKey = serviceKey
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	fb := New(opts)
	ts := httptest.NewServer(fb.Handler())
	t.Cleanup(ts.Close)
	return fb, ts
}

func call(t *testing.T, method, url string, headers map[string]string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func TestLogin(t *testing.T) {
	_, ts := newTestServer(t, Options{Users: []User{{Email: "demo@metromar.com", Password: "secret123"}}})
	anon := map[string]string{"apikey": anonKey}

	status, body := call(t, http.MethodPost, ts.URL+"/auth/v1/token?grant_type=password", anon,
		map[string]string{"email": "demo@metromar.com", "password": "secret123"})
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "demo@metromar.com", body["user"].(map[string]interface{})["email"])

	status, body = call(t, http.MethodPost, ts.URL+"/auth/v1/token?grant_type=password", anon,
		map[string]string{"email": "demo@metromar.com", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_grant", body["error"])

	status, _ = call(t, http.MethodPost, ts.URL+"/auth/v1/token?grant_type=refresh_token", anon, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIKeyRequired(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	status, body := call(t, http.MethodGet, ts.URL+"/rest/v1/stations", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid API key", body["message"])

	status, _ = call(t, http.MethodGet, ts.URL+"/rest/v1/stations", map[string]string{"apikey": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestStationsRejectUnknownBearer(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	status, _ := call(t, http.MethodGet, ts.URL+"/rest/v1/stations",
		map[string]string{"apikey": anonKey, "Authorization": "Bearer forged"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSignupAndProfile(t *testing.T) {
	fb, ts := newTestServer(t, Options{})
	service := map[string]string{"apikey": serviceKey, "Authorization": "Bearer " + serviceKey}

	status, body := call(t, http.MethodPost, ts.URL+"/auth/v1/signup", service, map[string]interface{}{
		"email": "new@metromar.com", "password": "longenough", "user_metadata": map[string]string{"full_name": "New User"},
	})
	require.Equal(t, http.StatusOK, status)
	userID := body["user"].(map[string]interface{})["id"].(string)
	assert.NotEmpty(t, userID)

	status, body = call(t, http.MethodPost, ts.URL+"/auth/v1/signup", service, map[string]interface{}{
		"email": "NEW@metromar.com", "password": "longenough",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "user_already_exists", body["error_code"])

	status, _ = call(t, http.MethodPost, ts.URL+"/rest/v1/profiles", service, map[string]interface{}{
		"id": userID, "full_name": "New User", "metro_card_balance": 100,
	})
	assert.Equal(t, http.StatusCreated, status)

	status, body = call(t, http.MethodPost, ts.URL+"/rest/v1/profiles", service, map[string]interface{}{"id": userID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "23505", body["code"])

	profiles := fb.Profiles()
	require.Len(t, profiles, 1)
	assert.Equal(t, "New User", profiles[0]["full_name"])
}

func TestProfileInsertNeedsServiceKey(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	status, body := call(t, http.MethodPost, ts.URL+"/rest/v1/profiles",
		map[string]string{"apikey": anonKey}, map[string]interface{}{"id": "u1"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "42501", body["code"])
}

func TestPaymentIntentValidation(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	headers := map[string]string{"apikey": anonKey, "Authorization": "Bearer " + anonKey}
	url := ts.URL + "/functions/v1/create-payment-intent"

	cases := []struct {
		name string
		body map[string]interface{}
		code string
	}{
		{"negative amount", map[string]interface{}{"amount": -10, "fromStationId": "a", "toStationId": "b", "passengers": map[string]int{"adult": 1}}, CodeInvalidAmount},
		{"missing amount", map[string]interface{}{"fromStationId": "a", "toStationId": "b"}, CodeInvalidAmount},
		{"missing station", map[string]interface{}{"amount": 30, "fromStationId": "a"}, CodeMissingStations},
		{"same station", map[string]interface{}{"amount": 30, "fromStationId": "same", "toStationId": "same", "passengers": map[string]int{"adult": 1}}, CodeInvalidRoute},
		{"no passengers", map[string]interface{}{"amount": 30, "fromStationId": "a", "toStationId": "b", "passengers": map[string]int{"adult": 0}}, CodeNoPassengers},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, http.MethodPost, url, headers, tc.body)
			assert.Equal(t, http.StatusInternalServerError, status)
			errBody := body["error"].(map[string]interface{})
			assert.Equal(t, tc.code, errBody["code"])
			assert.NotEmpty(t, errBody["message"])
		})
	}
}

func TestPaymentIntentDemoMode(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	headers := map[string]string{"apikey": anonKey, "Authorization": "Bearer " + anonKey}

	status, body := call(t, http.MethodPost, ts.URL+"/functions/v1/create-payment-intent", headers, map[string]interface{}{
		"amount": 60, "fromStationId": "st-churchgate", "toStationId": "st-dadar",
		"passengers": map[string]int{"adult": 2, "senior": 0, "child": 0},
	})
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["isDemoMode"])
	assert.Equal(t, float64(60), data["amount"])
	assert.Contains(t, data["clientSecret"], data["paymentIntentId"].(string))
}

func TestOverrides(t *testing.T) {
	fb, ts := newTestServer(t, Options{Overrides: map[string]Response{
		"POST /auth/v1/token": {Status: http.StatusUnauthorized, Body: `{"message":"Invalid API key"}`},
	}})

	status, body := call(t, http.MethodPost, ts.URL+"/auth/v1/token?grant_type=password",
		map[string]string{"apikey": anonKey}, map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid API key", body["message"])
	assert.Equal(t, 1, fb.Requests())
}

func TestPreflight(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/functions/v1/create-payment-intent", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
