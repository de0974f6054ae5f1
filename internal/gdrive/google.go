package gdrive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const fileFields = "nextPageToken, files(id,name,mimeType,size,modifiedTime,webViewLink,parents,driveId)"

// oauthClient is the "web"/"installed" section of an OAuth client file
type oauthClient struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// credentialsFile covers service-account keys and both OAuth client layouts
type credentialsFile struct {
	Type      string       `json:"type"`
	Web       *oauthClient `json:"web"`
	Installed *oauthClient `json:"installed"`
	oauthClient
}

// GoogleLister reads files through the Drive v3 API
type GoogleLister struct {
	srv     *drive.Service
	driveID string // restricts listing to one shared drive when set
}

// NewGoogleLister authenticates with a service-account key or an OAuth
// client file plus refresh token. tokenPath, when set, holds an
// oauth2.Token JSON and takes precedence over a refresh_token in the file.
func NewGoogleLister(ctx context.Context, credentialsPath, tokenPath, sharedDriveID string) (*GoogleLister, error) {
	if credentialsPath == "" {
		return nil, ErrNotConfigured
	}
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	ts, err := tokenSource(ctx, data, tokenPath)
	if err != nil {
		return nil, err
	}
	srv, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &GoogleLister{srv: srv, driveID: sharedDriveID}, nil
}

func tokenSource(ctx context.Context, data []byte, tokenPath string) (oauth2.TokenSource, error) {
	var creds credentialsFile
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	scopes := []string{drive.DriveReadonlyScope, drive.DriveMetadataReadonlyScope}
	if creds.Type == "service_account" {
		cfg, err := google.JWTConfigFromJSON(data, scopes...)
		if err != nil {
			return nil, fmt.Errorf("invalid service account key: %w", err)
		}
		return cfg.TokenSource(ctx), nil
	}

	client := &creds.oauthClient
	if creds.Web != nil {
		client = creds.Web
	} else if creds.Installed != nil {
		client = creds.Installed
	}
	if client.ClientID == "" {
		return nil, errors.New("credentials file has no client_id")
	}

	token := &oauth2.Token{RefreshToken: client.RefreshToken}
	if tokenPath != "" {
		raw, err := os.ReadFile(tokenPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read token: %w", err)
		}
		if err := json.Unmarshal(raw, token); err != nil {
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
	}
	if token.RefreshToken == "" && token.AccessToken == "" {
		return nil, errors.New("no refresh token found, authorize the OAuth client first")
	}

	cfg := &oauth2.Config{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       scopes,
	}
	return cfg.TokenSource(ctx, token), nil
}

// SharedDrives lists every shared drive visible to the credentials
func (g *GoogleLister) SharedDrives(ctx context.Context) ([]SharedDrive, error) {
	var out []SharedDrive
	err := g.srv.Drives.List().PageSize(100).Pages(ctx, func(r *drive.DriveList) error {
		for _, d := range r.Drives {
			if g.driveID == "" || d.Id == g.driveID {
				out = append(out, SharedDrive{ID: d.Id, Name: d.Name})
			}
		}
		return nil
	})
	return out, err
}

// ModifiedSince lists non-trashed files modified after since, newest first
func (g *GoogleLister) ModifiedSince(ctx context.Context, since time.Time) ([]RemoteFile, error) {
	q := fmt.Sprintf("modifiedTime > '%s' and trashed = false", since.UTC().Format(time.RFC3339))
	call := g.srv.Files.List().
		Q(q).
		Fields(googleapi.Field(fileFields)).
		OrderBy("modifiedTime desc").
		PageSize(1000).
		IncludeItemsFromAllDrives(true).
		SupportsAllDrives(true)
	if g.driveID != "" {
		call = call.Corpora("drive").DriveId(g.driveID)
	} else {
		call = call.Corpora("allDrives")
	}

	var out []RemoteFile
	err := call.Pages(ctx, func(r *drive.FileList) error {
		for _, f := range r.Files {
			modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
			out = append(out, RemoteFile{
				ID:           f.Id,
				Name:         f.Name,
				MimeType:     f.MimeType,
				Size:         f.Size,
				ModifiedTime: modified,
				WebViewLink:  f.WebViewLink,
				Parents:      f.Parents,
				DriveID:      f.DriveId,
			})
		}
		return nil
	})
	return out, err
}

// Folders lists every non-trashed folder, used to resolve paths
func (g *GoogleLister) Folders(ctx context.Context) ([]Folder, error) {
	var out []Folder
	err := g.srv.Files.List().
		Q("mimeType = 'application/vnd.google-apps.folder' and trashed = false").
		Fields("nextPageToken, files(id,name,parents,driveId)").
		PageSize(1000).
		IncludeItemsFromAllDrives(true).
		SupportsAllDrives(true).
		Corpora("allDrives").
		Pages(ctx, func(r *drive.FileList) error {
			for _, f := range r.Files {
				out = append(out, Folder{ID: f.Id, Name: f.Name, Parents: f.Parents, DriveID: f.DriveId})
			}
			return nil
		})
	return out, err
}

// Exists reports whether a file can still be fetched
func (g *GoogleLister) Exists(ctx context.Context, fileID string) (bool, error) {
	f, err := g.srv.Files.Get(fileID).SupportsAllDrives(true).Fields("id, trashed").Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return !f.Trashed, nil
}
