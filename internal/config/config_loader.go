package config

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"markercluster.opengeo.dev/internal/models"
	"markercluster.opengeo.dev/internal/report"
	"markercluster.opengeo.dev/internal/utils"
)

// ValidateConfigFlags ensures that only one configuration source is specified:
// either a config file "--config-file", a remote config URL "--config-url".
//
// Returns an error if more than one input method is specified.
func ValidateConfigFlags(configFile, configURL *string) error {
	if *configFile == "" && *configURL == "" {
		return fmt.Errorf("no configuration provided, either --config-file or --config-url must be specified")
	}
	if (*configFile != "" && *configURL != "") || (*configFile != "" && len(flag.Args()) > 0) || (*configURL != "" && len(flag.Args()) > 0) {
		return fmt.Errorf("only one of --config-file or --config-url can be specified")
	}
	return nil
}

// refreshConfig starts a background loop that periodically fetches the
// configuration document from a remote URL and updates the application's
// marker sources and cluster settings.
//
// It uses the provided HTTP client to make GET requests with optional basic auth,
// and on success, updates the configuration via cfg.UpdateConfig.
//
// Errors during fetch or parse are logged and reported to Sentry, but the loop continues,
// ensuring resiliency in the presence of transient issues.
//
// The routine stops gracefully when the context is canceled.
func refreshConfig(ctx context.Context, client *http.Client, configURL, configAuthUser, configAuthPass string, cfg *Config, logger *slog.Logger, interval time.Duration, maxRetries int) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping config refresh routine")
			return
		default:
			doc, err := loadConfigFromURL(ctx, client, configURL, configAuthUser, configAuthPass, maxRetries)
			if err != nil {
				report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
					Tags:  utils.MakeMap("config_url", configURL),
					Level: sentry.LevelError,
				})
				logger.Error("Failed to refresh remote config", "error", err)
			} else {
				cfg.UpdateConfig(doc)
				logger.Info("Successfully refreshed marker source configuration")
			}
			time.Sleep(interval)
		}
	}
}

// loadConfigFromFile reads a JSON configuration file from disk and
// unmarshals it into a Document.
//
// On error, it reports issues to Sentry and returns a descriptive error.
//
// This function is used when the application is configured to load its
// marker sources from a static file using the --config-file flag.
func loadConfigFromFile(filePath string) (Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return Document{}, fmt.Errorf("failed to read config file: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return Document{}, fmt.Errorf("failed to unmarshal JSON: %v", err)
	}

	return doc, nil
}

// loadConfigFromURL fetches a JSON configuration document from a remote
// HTTP(S) endpoint, using the provided client and optional basic
// authentication.
//
// It validates the response status, reads the body, and unmarshals the
// configuration into a Document.
//
// Errors are logged and reported to Sentry for observability.
func loadConfigFromURL(ctx context.Context, client *http.Client, url, authUser, authPass string, maxRetries int) (Document, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Document{}, fmt.Errorf("failed to create request: %v", err)
	}

	if authUser != "" && authPass != "" {
		req.SetBasicAuth(authUser, authPass)
	}

	resp, err := DoWithBackoff(ctx, client, req, maxRetries)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Document{}, fmt.Errorf("failed to fetch remote config: %v", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("remote config returned status: %d", resp.StatusCode)
		report.ReportErrorWithSentryOptions(statusErr, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Document{}, statusErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Document{}, fmt.Errorf("failed to read remote config: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Document{}, fmt.Errorf("failed to unmarshal JSON: %v", err)
	}

	return doc, nil
}

// DoWithBackoff performs the request, retrying transport failures with
// exponential backoff and jitter. A maxRetries of zero or less retries
// until the context is done.
func DoWithBackoff(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	backoff := BASE_BACKOFF
	var lastErr error

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.WithContext(ctx))
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if maxRetries > 0 && attempt >= maxRetries {
			return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
		}

		jitter := time.Duration(rand.Float64() * float64(backoff) * JITTER_FACTOR)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff + jitter):
		}
		backoff = calculateNewBackoffDelay(backoff)
	}
}

// ValidateSources rejects documents whose marker sources are unusable:
// every source needs an ID and exactly one of gtfs_url or snapshot_path.
func ValidateSources(sources []models.MarkerSource) error {
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		if s.ID == "" {
			return fmt.Errorf("marker source %q has no id", s.Name)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("duplicate marker source id %q", s.ID)
		}
		seen[s.ID] = struct{}{}

		if (s.GtfsURL == "") == (s.SnapshotPath == "") {
			return fmt.Errorf("marker source %q must set exactly one of gtfs_url or snapshot_path", s.ID)
		}
	}
	return nil
}
