// Package postversions binds the reconcile engine to Danbooru post versions.
//
// Store implements reconcile.Store over the post_versions table through GORM.
// Fetcher implements reconcile.Fetcher over the post_versions.json endpoint:
// every request projects the table columns with only=, caps the page with
// limit= and decodes nullable fields into their zero values. Exporter uploads
// check reports to object storage.
//
// # Usage
//
//	store := postversions.NewStore(db, log)
//	if err := store.Verify(ctx); err != nil {
//	    return err
//	}
//	fetcher := postversions.NewFetcher(remote.NewClient(cfg.Danbooru, log), log)
package postversions
