package devicecatalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListDevicesSendsApplicationIDAndParsesResponse(t *testing.T) {
	var gotQuery string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("applicationId")
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(DeviceListResponse{
			TotalCount: 1,
			Result:     []DeviceListEntry{{DevEUI: "0011223344556677", Name: "sensor-1"}},
		})
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.BearerToken = "test-token"
	cfg.ApplicationID = "app-42"
	client := New(cfg)

	out, err := client.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if gotQuery != "app-42" {
		t.Errorf("applicationId query = %q, want app-42", gotQuery)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization header = %q, want Bearer test-token", gotAuth)
	}
	if out.TotalCount != 1 || len(out.Result) != 1 || out.Result[0].DevEUI != "0011223344556677" {
		t.Errorf("ListDevices() = %+v, unexpected shape", out)
	}
}

func TestGetDeviceKeysPropagatesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	client := New(cfg)

	if _, err := client.GetDeviceKeys(context.Background(), "0011223344556677"); err == nil {
		t.Errorf("expected an error for a 404 response")
	}
}

func TestGetActivationParsesNestedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(DeviceActivationResponse{
			DeviceActivation: DeviceActivation{DevEUI: "0011223344556677", DevAddr: "01020304", FCntUp: 3},
		})
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	client := New(cfg)

	out, err := client.GetActivation(context.Background(), "0011223344556677")
	if err != nil {
		t.Fatalf("GetActivation: %v", err)
	}
	if out.DeviceActivation.DevAddr != "01020304" || out.DeviceActivation.FCntUp != 3 {
		t.Errorf("GetActivation() = %+v, unexpected shape", out)
	}
}
