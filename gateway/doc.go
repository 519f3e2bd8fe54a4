// Package gateway implements a token-gated HTTP front end to a single
// storage.Store.
//
// All requests must present the shared token, either as the "token" query
// parameter or by requesting the path "/<token>" itself. Authorized requests
// are routed as follows:
//
//	POST /upload            multipart upload; the "file" part is stored under
//	                        its file name, base64 encoded first when the
//	                        "encryption" field is "ciphertext"
//	GET  /config, /<token>  the control panel HTML page
//	GET  /<key>             the stored value as text/plain
//
// Fetching a key that was never stored returns 200 with an empty body; the
// X-Blob-Exists response header tells the two cases apart. Values are never
// decoded on the way out.
//
// Unauthorized requests for "/" get a decoy page resembling a freshly
// installed web server; any other unauthorized request gets 400 and the text
// "invalid token". If no store is configured, every request gets 400 and
// "store not bound".
package gateway // import "github.com/nicolagi/kvgate/gateway"
