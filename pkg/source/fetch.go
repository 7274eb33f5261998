package source

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/matzehuels/widetable/pkg/cache"
	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/frame"
	"github.com/matzehuels/widetable/pkg/httputil"
	"github.com/matzehuels/widetable/pkg/observability"
)

// Public copies of the course datasets.
const (
	CanadaURL    = "https://s3-api.us-geo.objectstorage.softlayer.net/cf-courses-data/CognitiveClass/DV0101EN/labs/Data_Files/Canada.xlsx"
	IncidentsURL = "https://s3-api.us-geo.objectstorage.softlayer.net/cf-courses-data/CognitiveClass/DV0101EN/labs/Data_Files/Police_Department_Incidents_-_Previous_Year__2016_.csv"
)

// Fetcher resolves a location (local path or http(s) URL) to bytes. URL
// downloads go through the cache; local files are always read fresh.
type Fetcher struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Client *httputil.Client
}

// NewFetcher fills nil arguments with a [cache.NullCache], the default
// keyer and [httputil.NewClient].
func NewFetcher(c cache.Cache, keyer cache.Keyer, client *httputil.Client) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if client == nil {
		client = httputil.NewClient()
	}
	return &Fetcher{Cache: c, Keyer: keyer, Client: client}
}

// Open returns the bytes at location and whether they came from the cache.
func (f *Fetcher) Open(ctx context.Context, location string) ([]byte, bool, error) {
	if !errs.IsURL(location) {
		data, err := readLocal(location)
		return data, false, err
	}

	key := f.Keyer.SourceKey(location)
	hooks := observability.Cache()
	// A broken cache degrades to a download.
	if data, ok, err := f.Cache.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, "source")
		return data, true, nil
	}
	hooks.OnCacheMiss(ctx, "source")

	data, err := f.Client.GetBytes(ctx, location)
	if err != nil {
		return nil, false, err
	}
	if err := f.Cache.Set(ctx, key, data, cache.TTLSource); err == nil {
		hooks.OnCacheSet(ctx, "source", len(data))
	}
	return data, false, nil
}

// Invalidate drops the cached copy of location.
func (f *Fetcher) Invalidate(ctx context.Context, location string) error {
	return f.Cache.Delete(ctx, f.Keyer.SourceKey(location))
}

// LoadCanada fetches and parses the immigration workbook.
func (f *Fetcher) LoadCanada(ctx context.Context, location string, opts SheetOptions) (*frame.Table, []byte, error) {
	data, _, err := f.Open(ctx, location)
	if err != nil {
		return nil, nil, err
	}
	t, err := ReadCanada(bytes.NewReader(data), opts)
	return t, data, err
}

// LoadIncidents fetches and parses the incident CSV.
func (f *Fetcher) LoadIncidents(ctx context.Context, location string, limit int) (*frame.Table, error) {
	data, _, err := f.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	return ReadIncidents(bytes.NewReader(data), limit)
}

func readLocal(path string) ([]byte, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.New(errs.ErrCodeFileNotFound, "%s: no such file", path)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "read %s", path)
	}
	return data, nil
}
