package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"rhfetch/internal"
)

func TestHTTPClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"value": 42}`)
	}))
	defer server.Close()

	client := NewHTTPClient()
	resp, err := client.Get(context.Background(), server.URL, BearerHeaders("tok-abc"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	var payload struct {
		Value int `json:"value"`
	}
	if err := DecodeJSON(resp, &payload); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if payload.Value != 42 {
		t.Errorf("Expected value 42, got %d", payload.Value)
	}
}

func TestHTTPClient_Get_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // Refuses connections from here on

	client := NewHTTPClient()
	_, err := client.Get(context.Background(), server.URL, nil)
	if !internal.IsErrorType(err, internal.ErrNetwork) {
		t.Fatalf("Expected Network error, got %v", err)
	}
}

func TestHTTPClient_PostForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Expected form content type, got %s", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm failed: %v", err)
		}
		if r.PostForm.Get("grant_type") != "password" {
			t.Errorf("Expected grant_type=password, got %s", r.PostForm.Get("grant_type"))
		}
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := NewHTTPClient()
	form := url.Values{}
	form.Set("grant_type", "password")

	resp, err := client.PostForm(context.Background(), server.URL, form, nil)
	if err != nil {
		t.Fatalf("PostForm failed: %v", err)
	}
	resp.Body.Close()
}

func TestDecodeJSON_ServerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"detail": "Invalid request."}`)
	}))
	defer server.Close()

	client := NewHTTPClient()
	resp, err := client.Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	var payload struct{}
	err = DecodeJSON(resp, &payload)
	if !internal.IsErrorType(err, internal.ErrInvalidResponse) {
		t.Fatalf("Expected InvalidResponse error, got %v", err)
	}

	var be *internal.BrokerError
	if !errors.As(err, &be) {
		t.Fatal("Expected a BrokerError")
	}
	if be.Message != "Invalid request." {
		t.Errorf("Expected the server message to be carried, got %q", be.Message)
	}
	if be.Status != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", be.Status)
	}
}

func TestServerMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "detail payload",
			body: `{"detail": "Unable to log in with provided credentials."}`,
			want: "Unable to log in with provided credentials.",
		},
		{
			name: "plain text",
			body: "  service unavailable \n",
			want: "service unavailable",
		},
		{
			name: "JSON without detail",
			body: `{"error": "nope"}`,
			want: `{"error": "nope"}`,
		},
		{
			name: "empty",
			body: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ServerMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
