package markers

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	remoteGtfs "github.com/jamespfennell/gtfs"
	"markercluster.opengeo.dev/internal/cluster"
	"markercluster.opengeo.dev/internal/config"
	"markercluster.opengeo.dev/internal/geo"
	"markercluster.opengeo.dev/internal/models"
	"markercluster.opengeo.dev/internal/report"
	"markercluster.opengeo.dev/internal/utils"
)

// Service loads marker sets from their configured sources and keeps them
// in a Store, ready for a clustering engine to consume.
type Service struct {
	Store    *Store
	Backoffs *config.BackoffStore
	Logger   *slog.Logger
	Client   *http.Client
	CacheDir string
}

func NewService(store *Store, logger *slog.Logger, client *http.Client, cacheDir string) *Service {
	return &Service{
		Store:    store,
		Backoffs: config.NewBackoffStore(),
		Logger:   logger,
		Client:   client,
		CacheDir: cacheDir,
	}
}

// LoadSources fetches and stores the marker set of every source, one
// goroutine per source. Failures are handled and reported per-source so
// that one broken feed does not block the rest.
func (s *Service) LoadSources(ctx context.Context, sources []models.MarkerSource, maxRetries int) {
	var wg sync.WaitGroup
	for _, source := range sources {
		src := source
		wg.Add(1)
		go func() {
			defer wg.Done()

			markers, err := s.loadSource(ctx, src, maxRetries)
			if err != nil {
				report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
					Tags: utils.MakeMap("source_id", src.ID),
					ExtraContext: map[string]interface{}{
						"gtfs_url":      src.GtfsURL,
						"snapshot_path": src.SnapshotPath,
					},
					Level: sentry.LevelError,
				})
				s.Logger.Error("Failed to load marker source", "source_id", src.ID, "error", err)
				return
			}

			s.Store.Set(src.ID, markers)
			s.Logger.Info("Successfully loaded marker source", "source_id", src.ID, "markers", len(markers))
		}()
	}
	wg.Wait()
}

// RefreshSources periodically reloads every marker source until the
// context is canceled.
func (s *Service) RefreshSources(ctx context.Context, sources []models.MarkerSource, interval time.Duration, maxRetries int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("Stopping marker source refresh routine")
			return
		case <-ticker.C:
			s.Logger.Info("Refreshing marker sources")
			s.LoadSources(ctx, sources, maxRetries)
		}
	}
}

func (s *Service) loadSource(ctx context.Context, source models.MarkerSource, maxRetries int) ([]*cluster.Marker, error) {
	if source.SnapshotPath != "" {
		return LoadSnapshot(source.SnapshotPath)
	}

	if next, exists := s.Backoffs.NextRetryAt(source.ID); exists && time.Now().UTC().Before(next) {
		return nil, fmt.Errorf("source %s is backing off until %s", source.ID, next)
	}

	bundle, err := s.downloadBundle(ctx, source, maxRetries)
	if err != nil {
		s.Backoffs.UpdateBackoff(source.ID)
		return nil, err
	}
	s.Backoffs.ResetBackoff(source.ID)

	static, err := remoteGtfs.ParseStatic(bundle, remoteGtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse GTFS static data from %s: %w", source.GtfsURL, err)
	}

	return MarkersFromStatic(static), nil
}

// downloadBundle fetches the raw GTFS zip for a source. Successful
// downloads are cached under a sha1-of-URL filename; when the download
// fails and a cached copy exists, the cached copy is served instead.
func (s *Service) downloadBundle(ctx context.Context, source models.MarkerSource, maxRetries int) ([]byte, error) {
	req, err := http.NewRequest("GET", source.GtfsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", source.GtfsURL, err)
	}

	resp, err := config.DoWithBackoff(ctx, s.Client, req, maxRetries)
	if err != nil {
		return s.readCachedBundle(source, fmt.Errorf("failed to make GET request to %s: %w", source.GtfsURL, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return s.readCachedBundle(source, fmt.Errorf("unexpected response status %d when downloading GTFS bundle from %s", resp.StatusCode, source.GtfsURL))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return s.readCachedBundle(source, fmt.Errorf("failed to read GTFS bundle response body from %s: %w", source.GtfsURL, err))
	}

	s.writeCachedBundle(source, data)
	return data, nil
}

func (s *Service) readCachedBundle(source models.MarkerSource, cause error) ([]byte, error) {
	if s.CacheDir == "" {
		return nil, cause
	}

	cached, err := utils.GetLastCachedFile(s.CacheDir, source.ID)
	if err != nil {
		return nil, cause
	}

	data, err := os.ReadFile(cached)
	if err != nil {
		return nil, cause
	}

	s.Logger.Warn("Serving cached GTFS bundle after download failure", "source_id", source.ID, "cache_file", cached, "error", cause)
	return data, nil
}

func (s *Service) writeCachedBundle(source models.MarkerSource, data []byte) {
	if s.CacheDir == "" {
		return
	}
	if err := utils.CreateCacheDirectory(s.CacheDir, s.Logger); err != nil {
		s.Logger.Error("Failed to create cache directory", "cache_dir", s.CacheDir, "error", err)
		return
	}

	hash := sha1.Sum([]byte(source.GtfsURL))
	name := fmt.Sprintf("source_%s_%s.zip", source.ID, hex.EncodeToString(hash[:]))
	path := filepath.Join(s.CacheDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		report.ReportError(err)
		s.Logger.Error("Failed to write GTFS bundle cache file", "path", path, "error", err)
	}
}

// MarkersFromStatic converts the stops of a parsed GTFS bundle into
// markers, one per stop with a usable location. The stop ID becomes the
// marker ID.
func MarkersFromStatic(static *remoteGtfs.Static) []*cluster.Marker {
	if static == nil {
		return nil
	}

	markers := make([]*cluster.Marker, 0, len(static.Stops))
	for _, stop := range static.Stops {
		if stop.Latitude == nil || stop.Longitude == nil {
			continue
		}
		lat := float64(*stop.Latitude)
		lon := float64(*stop.Longitude)
		if !geo.IsValidLatLon(lat, lon) {
			continue
		}
		markers = append(markers, cluster.NewMarker(stop.Id, lat, lon))
	}
	return markers
}
