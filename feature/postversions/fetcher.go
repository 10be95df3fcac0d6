package postversions

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"booru-sync/core/reconcile"
	"booru-sync/core/remote"

	"go.uber.org/zap"
)

const versionsPath = "post_versions.json"

// Fetcher queries the remote post_versions endpoint. It implements reconcile.Fetcher.
type Fetcher struct {
	client *remote.Client
	logger *zap.Logger
}

// NewFetcher creates a fetcher on top of an authenticated client.
func NewFetcher(client *remote.Client, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, logger: logger}
}

// Query builds the request parameters for a filter.
func Query(filter reconcile.Filter, pageSize int) url.Values {
	query := url.Values{
		"only":  {strings.Join(Columns, ",")},
		"limit": {strconv.Itoa(pageSize)},
	}
	for _, p := range filter.Params() {
		query.Set(p.Key, p.Value)
	}
	return query
}

// Fetch requests every version matching the filter, up to pageSize.
func (f *Fetcher) Fetch(ctx context.Context, filter reconcile.Filter, pageSize int) ([]reconcile.VersionRecord, error) {
	query := Query(filter, pageSize)

	var versions []apiVersion
	if err := f.client.GetJSON(ctx, versionsPath, query, &versions); err != nil {
		return nil, &reconcile.RemoteRequestError{Request: f.client.URL(versionsPath, query), Err: err}
	}

	records := make([]reconcile.VersionRecord, 0, len(versions))
	for _, v := range versions {
		row, err := v.model()
		if err != nil {
			return nil, &reconcile.RemoteRequestError{Request: f.client.URL(versionsPath, query), Err: err}
		}
		records = append(records, row.Record())
	}

	f.logger.Debug("Fetched post versions", zap.Int("count", len(records)))
	return records, nil
}
