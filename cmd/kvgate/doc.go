// Command kvgate serves a token-gated HTTP front end to a key-value store.
//
// Usage:
//
//	kvgate [-config $HOME/lib/kvgate/kvgate.config]
//
// The configuration file is relaxed JSON (see github.com/rogpeppe/rjson), for
// example:
//
//	{
//		address: ":8080"
//		admin_address: "localhost:8081"
//		token: "@yixiu"
//		max_upload_bytes: 26214400
//		store: {
//			type: "bolt"
//			path: "$HOME/lib/kvgate/blobs.db"
//		}
//	}
//
// The token may be overridden with the KVGATE_TOKEN environment variable.
// Supported store types are memory, disk, bolt, sqlite, postgres, mongo, s3,
// dynamodb and paired. A paired store has "fast" and "slow" sub-stores, each
// configured like a top-level store. Leaving the store type empty starts a
// gateway that answers every request with 400 "store not bound".
//
// When admin_address is set, Prometheus metrics are served there at /metrics,
// and a liveness probe at /healthz. See package gateway for the HTTP surface
// of the main listener.
package main // import "github.com/nicolagi/kvgate/cmd/kvgate"
