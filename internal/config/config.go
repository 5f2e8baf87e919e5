package config

import (
	"sync"

	"markercluster.opengeo.dev/internal/models"
)

// Document is the JSON shape of a configuration file or remote endpoint:
// the marker sources to load plus the engine settings applied to every
// clustering session the server hosts.
type Document struct {
	Sources []models.MarkerSource  `json:"sources"`
	Cluster models.ClusterSettings `json:"cluster"`
}

// Config holds all the configuration settings for our application.
type Config struct {
	Port    int
	Env     string
	Mu      sync.RWMutex
	Sources []models.MarkerSource
	Cluster models.ClusterSettings
}

// NewConfig creates a new instance of a Config struct.
func NewConfig(port int, env string, doc Document) *Config {
	return &Config{
		Port:    port,
		Env:     env,
		Sources: doc.Sources,
		Cluster: doc.Cluster,
	}
}

// UpdateConfig safely replaces the marker sources and cluster settings.
func (cfg *Config) UpdateConfig(doc Document) {
	cfg.Mu.Lock()
	defer cfg.Mu.Unlock()
	cfg.Sources = doc.Sources
	cfg.Cluster = doc.Cluster
}

// GetSources safely returns a copy of the marker source slice to avoid
// concurrent modification issues.
// This method should be used to access the sources from other parts of the application.
func (cfg *Config) GetSources() []models.MarkerSource {
	cfg.Mu.RLock()
	defer cfg.Mu.RUnlock()
	return append([]models.MarkerSource(nil), cfg.Sources...)
}

// GetClusterSettings safely returns the current engine settings.
func (cfg *Config) GetClusterSettings() models.ClusterSettings {
	cfg.Mu.RLock()
	defer cfg.Mu.RUnlock()
	return cfg.Cluster
}
