/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	APIServer     = "api_server"
	WebhookServer = "webhook_server"
	IngestLambda  = "ingest_lambda"
)

var (
	ServiceName = flag.String("service", APIServer, "'api_server', 'webhook_server' or 'ingest_lambda'")
	ByPassAuth  = flag.Bool("no_auth", false, "skip jwt validation on the api server, for local development only")
	Port        = flag.Int("port", 0, "port to listen on, overrides PORT from env when set")
)

// ParseFlags must be called once in main before any flag is read. Tests never
// call it, so every flag keeps its default value there.
func ParseFlags() {
	if !flag.Parsed() {
		flag.Parse()
	}
}
