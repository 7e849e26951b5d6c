/*
Package client provides a Go client library for the QuickLaunch HTTP API.

The client package wraps the pkg/httpapi JSON surface with a
convenient, idiomatic Go interface: one method per endpoint, typed
request/response structs shared with pkg/rpc, and errors surfaced as
*APIError carrying the same code/suggestion a browser-based caller
would see.

# Usage

Creating a Client:

	c := client.NewClient("http://127.0.0.1:8000")

Listing apps:

	resp, err := c.ListApps(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, app := range resp.Apps {
		fmt.Printf("- %s (port %d)\n", app.Name, app.Port)
	}

Adding an app:

	app, err := c.AddApp(ctx, types.AppConfig{
		ID: "api", Name: "API", Port: 4100,
		Path: "/srv/api", Command: "node index.js",
	})
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Kind == qlerr.KindPortInUse {
			fmt.Println("port taken:", apiErr.Suggestion)
		}
	}

Starting and stopping:

	_, err := c.Start(ctx, rpc.StartAppRequest{ID: "api", Path: "/srv/api", Command: "node index.js"})
	err = c.Stop(ctx, "api")

# Error Handling

Every non-2xx response decodes into *APIError, which embeds the
server's qlerr.Kind so callers can branch the same way pkg/httpapi's
statusForKind does:

	_, err := c.AddApp(ctx, app)
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case qlerr.KindPortInUse:
			// offer the alternative port
		case qlerr.KindPathNotFound:
			// app directory doesn't exist
		}
	}

# Thread Safety

Client holds no mutable state beyond the shared *http.Client, so a
single instance may be reused concurrently across goroutines.

# See Also

  - pkg/httpapi for the server-side route table
  - pkg/rpc for the shared request/response types
  - cmd/quicklaunch for CLI usage examples
*/
package client
