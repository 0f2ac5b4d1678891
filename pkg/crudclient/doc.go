// Package crudclient is the entry point for building a crud.Registry that
// talks to a real API.
//
// It layers configuration, HTTP transport, authentication, metrics and
// schema discovery on top of the crud package.
//
// Quick start
//
//	ctx := context.Background()
//
//	// Minimal: just an API endpoint (no auth), resources discovered from
//	// GET <endpoint>schema/endpoints.
//	client, err := crudclient.New(ctx, &crud.Config{
//	  APIEndpoint:    "https://api.example.com/api/",
//	  DiscoverSchema: true,
//	})
//	if err != nil { log.Fatal(err) }
//	defer client.Close()
//
//	obj, err := client.Call(ctx, "object", "get", nil, crud.Params{"guid": "123"}, nil).Wait(ctx)
//
// Settings
//
// NewFromSettings reads api.url, nats.url and log.level from a
// settings.Settings, so RESTCRUD_API_URL and the config file work the same
// way as they do for the crudctl CLI.
package crudclient
