/*
main.go - Application entry point

PURPOSE:
  Command-line interface of the sales engine: runs the HTTP server and the
  maintenance tasks that share its configuration.

COMMANDS:
  serve      Start the HTTP API with graceful shutdown
  migrate    Create or upgrade the schema, then exit
  seed       Load a demo scenario
  forecast   Print a forecast of daily sales amounts
  export     Write the sales listing as CSV

GLOBAL FLAGS:
  --config   YAML configuration file (optional)
  --db       SQLite database path, overrides database.path
             Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server serve --db ./data/ventes.db

  # Load the seed set, then forecast
  ./server seed --scenario forecast-history
  ./server forecast --horizon 7

  # Export April sales
  ./server export --from 2025-04-01 --to 2025-04-30 --out avril.csv

SEE ALSO:
  - commands.go: Command implementations
  - config/config.go: Configuration file
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
