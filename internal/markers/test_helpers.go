package markers

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

type testStop struct {
	id  string
	lat float64
	lon float64
}

// buildGTFSZip assembles a minimal GTFS static bundle containing the
// given stops.
func buildGTFSZip(t *testing.T, stops []testStop) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := map[string]string{
		"agency.txt":     "agency_id,agency_name,agency_url,agency_timezone\n1,Test Agency,https://agency.example.com,America/Los_Angeles\n",
		"routes.txt":     "route_id,agency_id,route_short_name,route_long_name,route_type\nr1,1,1,Test Route,3\n",
		"calendar.txt":   "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\ns1,1,1,1,1,1,0,0,20250101,20261231\n",
		"trips.txt":      "route_id,service_id,trip_id\nr1,s1,t1\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n",
	}

	stopsFile := "stop_id,stop_name,stop_lat,stop_lon\n"
	for _, s := range stops {
		stopsFile += fmt.Sprintf("%s,Stop %s,%f,%f\n", s.id, s.id, s.lat, s.lon)
	}
	files["stops.txt"] = stopsFile

	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}

	return buf.Bytes()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
