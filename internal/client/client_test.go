package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchJSONSendsCredentials(t *testing.T) {
	var gotUser, gotPass, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`{"name":"Watercooler"}`))
	}))
	defer srv.Close()

	c := New(&Config{
		Subdomain: "acme",
		Token:     "secret-token",
		BaseURL:   srv.URL,
		UserAgent: "Campfire Archiver",
	})

	var out struct {
		Name string `json:"name"`
	}
	if err := c.FetchJSON(context.Background(), "rooms.json", &out); err != nil {
		t.Fatalf("FetchJSON: %v", err)
	}

	if gotUser != "secret-token" {
		t.Errorf("basic auth user = %q, want the token", gotUser)
	}
	if gotPass != "X" {
		t.Errorf("basic auth password = %q, want fixed placeholder X", gotPass)
	}
	if gotAgent != "Campfire Archiver" {
		t.Errorf("user agent = %q", gotAgent)
	}
	if out.Name != "Watercooler" {
		t.Errorf("decoded name = %q", out.Name)
	}
}

func TestFetchJSONNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(&Config{BaseURL: srv.URL})

	var out map[string]interface{}
	err := c.FetchJSON(context.Background(), "room/1/messages/2/upload.json", &out)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("404 should map to ErrNotFound, got %v", err)
	}
}

func TestFetchJSONServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(&Config{BaseURL: srv.URL})

	var out map[string]interface{}
	err := c.FetchJSON(context.Background(), "rooms.json", &out)
	if err == nil {
		t.Fatal("expected error for HTTP 502")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("5xx must not map to ErrNotFound")
	}
}

func TestFetchJSONBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := New(&Config{BaseURL: srv.URL})

	var out map[string]interface{}
	if err := c.FetchJSON(context.Background(), "rooms.json", &out); err == nil {
		t.Fatal("expected decode error for non-JSON body")
	}
}

func TestFetchBytes(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/uploads/1/cat.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
	defer srv.Close()

	c := New(&Config{BaseURL: srv.URL})

	got, err := c.FetchBytes(context.Background(), srv.URL+"/uploads/1/cat.png")
	if err != nil {
		t.Fatalf("FetchBytes: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload mismatch: got %v", got)
	}

	if _, err := c.FetchBytes(context.Background(), srv.URL+"/uploads/1/gone.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing payload should map to ErrNotFound, got %v", err)
	}
}

func TestDerivedBaseURL(t *testing.T) {
	c := New(&Config{Subdomain: "acme", APIDomain: "campfirenow.com"})
	if got := c.BaseURL(); got != "https://acme.campfirenow.com/" {
		t.Errorf("BaseURL() = %q", got)
	}
}
