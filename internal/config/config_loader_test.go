package config

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"markercluster.opengeo.dev/internal/models"
)

func TestLoadConfigFromFile(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		content := `{
		"sources": [{
			"id": "bus",
			"name": "Bus Stops",
			"gtfs_url": "https://gtfs.example.com/bundle.zip"
		}],
		"cluster": {
			"grid_size": 80,
			"min_cluster_size": 3,
			"max_zoom": 15
		}
		}`
		tmpFile, err := os.CreateTemp("", "config-*.json")
		if err != nil {
			t.Fatalf("Failed to create temporary file: %v", err)
		}
		defer os.Remove(tmpFile.Name())

		if _, err := tmpFile.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write to temporary file: %v", err)
		}
		tmpFile.Close()

		doc, err := loadConfigFromFile(tmpFile.Name())
		if err != nil {
			t.Fatalf("loadConfigFromFile failed: %v", err)
		}

		if len(doc.Sources) != 1 {
			t.Fatalf("Expected 1 source, got %d", len(doc.Sources))
		}

		expected := models.MarkerSource{
			ID:      "bus",
			Name:    "Bus Stops",
			GtfsURL: "https://gtfs.example.com/bundle.zip",
		}

		if doc.Sources[0] != expected {
			t.Errorf("Expected source %+v, got %+v", expected, doc.Sources[0])
		}
		if doc.Cluster.GridSize != 80 || doc.Cluster.MinClusterSize != 3 || doc.Cluster.MaxZoom != 15 {
			t.Errorf("Cluster settings not parsed: %+v", doc.Cluster)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		content := `{ this is not valid JSON }`
		tmpFile, err := os.CreateTemp("", "invalid-config-*.json")
		if err != nil {
			t.Fatalf("Failed to create temporary file: %v", err)
		}
		defer os.Remove(tmpFile.Name())

		if _, err := tmpFile.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write to temporary file: %v", err)
		}
		tmpFile.Close()

		_, err = loadConfigFromFile(tmpFile.Name())
		if err == nil {
			t.Errorf("Expected error with invalid JSON, got none")
		}
	})

	t.Run("NonExistentFile", func(t *testing.T) {
		_, err := loadConfigFromFile("non-existent-file.json")
		if err == nil {
			t.Errorf("Expected error for non-existent file, got none")
		}
	})
}

func TestLoadConfigFromURL(t *testing.T) {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}
	ctx := context.Background()

	t.Run("ValidResponse", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
			 "sources": [{
				"id": "rail",
				"name": "Rail Stations",
				"gtfs_url": "https://gtfs.example.com/rail.zip"
			 }],
			 "cluster": {"grid_size": 50}
			}`))
		}))
		defer ts.Close()

		doc, err := loadConfigFromURL(ctx, client, ts.URL, "user", "pass", 1)
		if err != nil {
			t.Fatalf("loadConfigFromURL failed: %v", err)
		}

		if len(doc.Sources) != 1 {
			t.Fatalf("Expected 1 source, got %d", len(doc.Sources))
		}

		expected := models.MarkerSource{
			ID:      "rail",
			Name:    "Rail Stations",
			GtfsURL: "https://gtfs.example.com/rail.zip",
		}

		if doc.Sources[0] != expected {
			t.Errorf("Expected source %+v, got %+v", expected, doc.Sources[0])
		}
		if doc.Cluster.GridSize != 50 {
			t.Errorf("Expected grid size 50, got %d", doc.Cluster.GridSize)
		}
	})

	t.Run("ErrorResponse", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer ts.Close()

		_, err := loadConfigFromURL(ctx, client, ts.URL, "", "", 1)
		if err == nil {
			t.Errorf("Expected error with 500 response, got none")
		}
	})

	t.Run("InvalidJSONResponse", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{ this is not valid JSON }`))
		}))
		defer ts.Close()

		_, err := loadConfigFromURL(ctx, client, ts.URL, "", "", 1)
		if err == nil {
			t.Errorf("Expected error for invalid JSON response, got none")
		}
	})
	t.Run("InvalidURL", func(t *testing.T) {
		_, err := loadConfigFromURL(ctx, client, "://invalid-url", "", "", 1)
		if err == nil || !strings.Contains(err.Error(), "failed to create request") {
			t.Errorf("Expected request creation error, got: %v", err)
		}
	})
}

func TestValidateConfigFlags(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		configURL   string
		extraArgs   []string
		expectError bool
	}{
		{"No config", "", "", nil, true},
		{"Valid local config", "config.json", "", nil, false},
		{"Valid remote config", "", "http://example.com/config.json", nil, false},
		{"Both config file and URL", "config.json", "http://example.com/config.json", nil, true},
		{"Config file with extra args", "config.json", "", []string{"extraArg"}, true},
		{"Config URL with extra args", "", "http://example.com/config.json", []string{"extraArg"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(tt.name, flag.ContinueOnError)
			var output bytes.Buffer
			flag.CommandLine.SetOutput(&output)

			configFile := flag.String("config-file", "", "Path to config file")
			configURL := flag.String("config-url", "", "URL to config")

			args := []string{"cmd"}
			if tt.configFile != "" {
				args = append(args, "--config-file="+tt.configFile)
			}
			if tt.configURL != "" {
				args = append(args, "--config-url="+tt.configURL)
			}
			args = append(args, tt.extraArgs...)

			os.Args = args
			flag.CommandLine.Parse(args[1:])

			err := ValidateConfigFlags(configFile, configURL)

			if (err != nil) != tt.expectError {
				t.Errorf("Expected error: %v, got: %v", tt.expectError, err)
			}

			if err != nil {
				expected := ""
				if tt.configFile == "" && tt.configURL == "" {
					expected = "no configuration provided, either --config-file or --config-url must be specified"
				} else {
					expected = "only one of --config-file or --config-url"
				}

				if !strings.Contains(err.Error(), expected) {
					t.Errorf("Unexpected error message: %v", err)
				}
			}
		})
	}
}

func TestValidateSources(t *testing.T) {
	tests := []struct {
		name        string
		sources     []models.MarkerSource
		expectError bool
	}{
		{"Empty list", nil, false},
		{"Valid GTFS source", []models.MarkerSource{{ID: "bus", GtfsURL: "https://x/gtfs.zip"}}, false},
		{"Valid snapshot source", []models.MarkerSource{{ID: "bus", SnapshotPath: "bus.snap"}}, false},
		{"Missing id", []models.MarkerSource{{Name: "Bus", GtfsURL: "https://x/gtfs.zip"}}, true},
		{"Duplicate id", []models.MarkerSource{{ID: "bus", GtfsURL: "https://x/a.zip"}, {ID: "bus", GtfsURL: "https://x/b.zip"}}, true},
		{"Neither input", []models.MarkerSource{{ID: "bus"}}, true},
		{"Both inputs", []models.MarkerSource{{ID: "bus", GtfsURL: "https://x/gtfs.zip", SnapshotPath: "bus.snap"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSources(tt.sources)
			if (err != nil) != tt.expectError {
				t.Errorf("Expected error: %v, got: %v", tt.expectError, err)
			}
		})
	}
}

func TestRefreshConfig(t *testing.T) {
	cfg := NewConfig(
		4000,
		"testing",
		Document{
			Sources: []models.MarkerSource{{ID: "bus", Name: "Bus Stops", GtfsURL: "https://gtfs.example.com/bundle.zip"}},
		},
	)

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var serverHitCount int
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHitCount++

		user, pass, hasAuth := r.BasicAuth()
		if hasAuth && (user != "testuser" || pass != "testpass") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{
			"sources": [{
				"id": "ferry",
				"name": "Refreshed Ferry Terminals",
				"gtfs_url": "https://refreshed.example.com/gtfs.zip"
			}],
			"cluster": {"grid_size": 90}
		}`)
	}))
	defer mockServer.Close()

	originalSources := cfg.GetSources()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refreshConfig(ctx, client, mockServer.URL, "testuser", "testpass", cfg, testLogger, 100*time.Millisecond, 1)

	time.Sleep(200 * time.Millisecond)

	if serverHitCount == 0 {
		t.Fatal("Mock server was never called")
	}

	updatedSources := cfg.GetSources()

	if len(updatedSources) == 0 {
		t.Fatal("No sources found in updated configuration")
	}

	var found bool
	for _, s := range updatedSources {
		if s.ID == "ferry" && s.Name == "Refreshed Ferry Terminals" {
			found = true
			break
		}
	}

	if !found {
		t.Errorf("Config not updated with refreshed source data. Original: %+v, Updated: %+v", originalSources, updatedSources)
	}

	if cfg.GetClusterSettings().GridSize != 90 {
		t.Errorf("Cluster settings not refreshed: %+v", cfg.GetClusterSettings())
	}
}
