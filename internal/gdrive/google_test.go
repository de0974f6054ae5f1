package gdrive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTokenSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token.json")
	if err := os.WriteFile(tokenFile, []byte(`{"access_token":"at","refresh_token":"rt"}`), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		creds   string
		token   string
		wantErr bool
	}{
		{"installed with refresh token", `{"installed":{"client_id":"id","client_secret":"s","refresh_token":"rt"}}`, "", false},
		{"web with token file", `{"web":{"client_id":"id","client_secret":"s"}}`, tokenFile, false},
		{"top level client", `{"client_id":"id","client_secret":"s","refresh_token":"rt"}`, "", false},
		{"no refresh token", `{"installed":{"client_id":"id","client_secret":"s"}}`, "", true},
		{"no client id", `{"installed":{"client_secret":"s","refresh_token":"rt"}}`, "", true},
		{"missing token file", `{"web":{"client_id":"id"}}`, filepath.Join(dir, "nope.json"), true},
		{"not json", `nope`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := tokenSource(ctx, []byte(tt.creds), tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && ts == nil {
				t.Fatal("nil token source")
			}
		})
	}
}

func TestNewGoogleListerWithoutCredentials(t *testing.T) {
	if _, err := NewGoogleLister(context.Background(), "", "", ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}
