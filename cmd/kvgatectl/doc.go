// Command kvgatectl stores and fetches values through a running kvgate.
//
// Usage:
//
//	kvgatectl [-config file] [-address addr] [-token t] put [-ciphertext] name [file]
//	kvgatectl [-config file] [-address addr] [-token t] get name
//	kvgatectl [-config file] [-address addr] [-token t] decode name
//
// Put reads the value from file, or from standard input when file is absent.
// Get writes the stored value to standard output as is. Decode does the same
// for values uploaded with -ciphertext, turning the stored base64 back into
// text. The server does not remember which mode a value was stored with, so
// it is up to the caller to pick get or decode.
//
// Address and token default to those in the configuration file
// ($HOME/lib/kvgate/kvgatectl.config), if present. KVGATE_TOKEN overrides the
// token in the file; the -token flag overrides both.
package main // import "github.com/nicolagi/kvgate/cmd/kvgatectl"
