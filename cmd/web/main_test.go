package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLandingPage(t *testing.T) {
	tests := []struct {
		name string
		data pageData
		want string
	}{
		{"default port", pageData{SSHHost: "play.example.com", SSHPort: "22"}, "ssh -t play.example.com"},
		{"custom port", pageData{SSHHost: "play.example.com", SSHPort: "2222"}, "ssh -t -p 2222 play.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHandler(log.New(io.Discard), tt.data).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("content type = %q", ct)
			}
			if body := rec.Body.String(); !strings.Contains(body, tt.want) {
				t.Errorf("page missing %q", tt.want)
			}
		})
	}
}

func TestLandingPageNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(log.New(io.Discard), pageData{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
