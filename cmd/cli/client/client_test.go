package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestDo_SendsTokenAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token: %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("semester") != "2" {
			t.Errorf("query not sent: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"items":[{"code":"CS201"}],"total":1,"limit":10,"offset":0}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Token: "tok", HTTP: srv.Client()}
	var page Page[map[string]string]
	err := c.Do(context.Background(), http.MethodGet, "/subjects", url.Values{"semester": {"2"}}, nil, &page)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if page.Total != 1 || page.Items[0]["code"] != "CS201" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestDo_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Subject validation failed","fields":{"semester":"semester must be at most 8","credits":"credits is required"}}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, HTTP: srv.Client()}
	err := c.Do(context.Background(), http.MethodPost, "/subjects", nil, map[string]int{"semester": 9}, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Fields["semester"] == "" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if msg := apiErr.Error(); !strings.Contains(msg, "credits: credits is required; semester:") {
		t.Errorf("fields should be listed in order: %q", msg)
	}
}
