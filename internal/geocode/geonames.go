package geocode

import (
	"archive/zip"
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"account-explorer/internal/models"
)

// DefaultUSPostalURL is the GeoNames postal code dump for the United States.
const DefaultUSPostalURL = "https://download.geonames.org/export/zip/US.zip"

// geonamesFields is the column count of a GeoNames postal code line:
// country, postal code, place, admin1 name/code, admin2 name/code,
// admin3 name/code, latitude, longitude, accuracy.
const geonamesFields = 12

// GeoNamesProvider resolves ZIPs from a local GeoNames postal code file (the
// .txt dump or its .zip archive), downloading it first when configured to.
type GeoNamesProvider struct {
	path        string
	downloadURL string
	client      *http.Client
	logger      *zap.Logger

	mu     sync.Mutex
	points map[string]models.GeoPoint
}

type Option func(*GeoNamesProvider)

// WithDownloadURL fetches the dump from url when path does not exist.
func WithDownloadURL(url string) Option {
	return func(p *GeoNamesProvider) { p.downloadURL = url }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *GeoNamesProvider) { p.client = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *GeoNamesProvider) { p.logger = l }
}

func NewGeoNamesProvider(path string, opts ...Option) *GeoNamesProvider {
	p := &GeoNamesProvider{
		path:   path,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Lookup loads the reference data on first use. A failed load is returned to
// the caller and retried on the next call.
func (p *GeoNamesProvider) Lookup(ctx context.Context, zips []string) (map[string]models.GeoPoint, error) {
	points, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.GeoPoint, len(zips))
	for _, z := range zips {
		if pt, ok := points[z]; ok {
			out[z] = pt
		}
	}
	return out, nil
}

func (p *GeoNamesProvider) load(ctx context.Context) (map[string]models.GeoPoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.points != nil {
		return p.points, nil
	}

	if _, err := os.Stat(p.path); os.IsNotExist(err) && p.downloadURL != "" {
		if err := p.download(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	points, err := readPostalFile(p.path)
	if err != nil {
		return nil, err
	}
	p.points = points
	p.logger.Info("postal reference loaded",
		zap.String("path", p.path),
		zap.Int("zips", len(points)),
		zap.Duration("elapsed", time.Since(start)))
	return points, nil
}

func (p *GeoNamesProvider) download(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.downloadURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP GET %s: %w", p.downloadURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP GET %s: status %d", p.downloadURL, resp.StatusCode)
	}

	tmp := p.path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing file %s: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing file %s: %w", tmp, err)
	}
	p.logger.Info("postal reference downloaded", zap.String("url", p.downloadURL))
	return os.Rename(tmp, p.path)
}

func readPostalFile(path string) (map[string]models.GeoPoint, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		rz, err := zip.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("opening zip file: %w", err)
		}
		defer rz.Close()

		points := make(map[string]models.GeoPoint)
		for _, f := range rz.File {
			// The archive carries a readme.txt next to the data file.
			if !strings.EqualFold(filepath.Ext(f.Name), ".txt") || strings.EqualFold(f.Name, "readme.txt") {
				continue
			}
			if err := readZipEntry(f, points); err != nil {
				return nil, err
			}
		}
		return points, nil
	}

	fi, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening postal file: %w", err)
	}
	defer fi.Close()
	return ParsePostalCodes(fi)
}

func readZipEntry(f *zip.File, into map[string]models.GeoPoint) error {
	fi, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening file in zip: %w", err)
	}
	defer fi.Close()

	points, err := ParsePostalCodes(fi)
	if err != nil {
		return err
	}
	for k, v := range points {
		into[k] = v
	}
	return nil
}

// ParsePostalCodes reads tab-separated GeoNames postal lines. Lines with
// missing or unparseable coordinates are skipped. The first entry for a
// postal code wins.
func ParsePostalCodes(r io.Reader) (map[string]models.GeoPoint, error) {
	points := make(map[string]models.GeoPoint)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < geonamesFields-1 {
			continue
		}
		code := strings.TrimSpace(fields[1])
		if code == "" {
			continue
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(fields[9]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(fields[10]), 64)
		if errLat != nil || errLon != nil || math.IsNaN(lat) || math.IsNaN(lon) {
			continue
		}
		if _, dup := points[code]; dup {
			continue
		}
		points[code] = models.GeoPoint{Lat: lat, Lon: lon}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading postal codes: %w", err)
	}
	return points, nil
}
