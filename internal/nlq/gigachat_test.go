package nlq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newGigaChatTestServer(t *testing.T, tokenCalls *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth", func(w http.ResponseWriter, r *http.Request) {
		*tokenCalls++
		if r.Header.Get("RqUID") == "" {
			t.Error("token request missing RqUID header")
		}
		if r.Header.Get("Authorization") != "Basic test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 1740})
	})
	mux.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": `{"op":"count","metric":"videos","filters":{}}`}},
			},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGigaChatClientChatReusesToken(t *testing.T) {
	tokenCalls := 0
	server := newGigaChatTestServer(t, &tokenCalls)

	client, err := NewGigaChatClient(GigaChatConfig{
		AuthKey:  "test-key",
		OAuthURL: server.URL + "/oauth",
		ChatURL:  server.URL + "/chat",
	})
	if err != nil {
		t.Fatalf("NewGigaChatClient() error = %v", err)
	}

	for range 2 {
		reply, err := client.Chat(context.Background(), planPrompt, "сколько видео?")
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if reply == "" {
			t.Fatal("Chat() returned empty reply")
		}
	}
	if tokenCalls != 1 {
		t.Fatalf("token exchanged %d times, want 1", tokenCalls)
	}
}

func TestGigaChatClientRequiresAuthKey(t *testing.T) {
	if _, err := NewGigaChatClient(GigaChatConfig{}); err == nil {
		t.Fatal("expected error for missing auth key")
	}
}

func TestGigaChatClientSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	client, err := NewGigaChatClient(GigaChatConfig{
		AuthKey:  "test-key",
		OAuthURL: server.URL,
		ChatURL:  server.URL,
	})
	if err != nil {
		t.Fatalf("NewGigaChatClient() error = %v", err)
	}
	if _, err := client.Chat(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error from 403 response")
	}
}
