package cutlinesdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSendsAuthAndDecodesOutcome(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(Outcome{Applied: true, ID: "z1", CanUndo: true})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "demo")
	c.APIKey = "cl_test"
	out, err := c.AddZoom(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("add zoom: %v", err)
	}
	if !out.Applied || out.ID != "z1" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if gotPath != "/v0/projects/demo/zoom" || gotKey != "cl_test" {
		t.Fatalf("path=%s key=%s", gotPath, gotKey)
	}
	if gotBody["start"] != 1.0 || gotBody["end"] != 3.0 {
		t.Fatalf("unexpected body %+v", gotBody)
	}
}

func TestClientReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"not_found"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "missing")
	_, err := c.Undo(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
}
