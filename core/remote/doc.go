// Package remote provides the HTTP client for the remote history API.
//
// Requests are plain authenticated GETs: login and api_key travel as query
// parameters and responses are JSON. The client is built on the fasthttp
// Agent shipped with Fiber.
//
// A failed request is reported as a *RequestError whose URL is the complete
// request, credentials included, so an operator can replay it.
//
// # Usage
//
//	client := remote.NewClient(cfg.Danbooru, log)
//	if _, err := client.CheckLogin(ctx); err != nil {
//	    return err
//	}
//
//	var rows []map[string]any
//	err := client.GetJSON(ctx, "post_versions.json", url.Values{"limit": {"1000"}}, &rows)
package remote
