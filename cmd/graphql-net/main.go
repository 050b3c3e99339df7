package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/benhysell/graphql-net/internal/eventbus"
	"github.com/benhysell/graphql-net/internal/executor"
	"github.com/benhysell/graphql-net/internal/otel"
	"github.com/benhysell/graphql-net/internal/provider/memprov"
	"github.com/benhysell/graphql-net/internal/provider/sqlprov"
	"github.com/benhysell/graphql-net/internal/schema"
	"github.com/benhysell/graphql-net/internal/server"
)

const rootUsage = `graphql-net — GraphQL schemas from declarative queries over Go data

USAGE:
  graphql-net <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL endpoint over the demo catalog
  render           Print the demo catalog schema as SDL
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -server.addr <addr>         HTTP listen address (default: :8080)
  -server.pretty              Pretty-print JSON responses
  -server.timeout <duration>  Per-request timeout, e.g. 10s (default: 10s)
  -data.driver <name>         Data backend: memory, sqlite3, postgres or
                              mysql (default: memory)
  -data.dsn <dsn>             database/sql DSN for SQL backends
                              (default for sqlite3: :memory:, seeded)
  -otel.endpoint <addr>       OTLP collector endpoint
  -otel.service <name>        OpenTelemetry service name (default: graphql-net)
`

const renderUsage = `render FLAGS:
  -out <file>  Write SDL to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("graphql-net", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "render":
		return cmdRender(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "render":
		fmt.Print(renderUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdServe(args []string) error {
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	driver := "memory"
	dsn := ""
	otelEndpoint := ""
	otelService := "graphql-net"

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.StringVar(&driver, "data.driver", driver, "Data backend")
	fs.StringVar(&dsn, "data.dsn", dsn, "database/sql DSN")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}

	sch, err := catalogSchema()
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	provider, root, cleanup, err := openBackend(driver, dsn)
	if err != nil {
		return err
	}
	defer cleanup()

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	opts := []server.Option{server.WithTimeout(timeout)}
	if pretty {
		opts = append(opts, server.WithPretty())
	}
	h, err := server.New(provider, sch, root, opts...)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	log.Printf("graphql-net serving on %s (backend: %s)", addr, driver)
	return http.ListenAndServe(addr, h)
}

// openBackend wires the chosen data backend: the reflection evaluator over
// an in-memory catalog, or a SQL provider over a database/sql driver.
func openBackend(driver, dsn string) (executor.Provider, server.RootFunc, func(), error) {
	if driver == "memory" {
		data := seedCatalog()
		return memprov.New(), func(context.Context) any { return data }, func() {}, nil
	}

	if dsn == "" {
		if driver != "sqlite3" {
			return nil, nil, nil, fmt.Errorf("-data.dsn is required for driver %q", driver)
		}
		dsn = ":memory:"
	}
	p, err := sqlprov.Open(driver, dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	if driver == "sqlite3" && dsn == ":memory:" {
		if err := seedSQLite(p); err != nil {
			p.Close()
			return nil, nil, nil, fmt.Errorf("seed sqlite: %w", err)
		}
	}
	// SQL queries never touch the root value; the context type alone maps
	// sequences onto tables.
	return p, func(context.Context) any { return (*Catalog)(nil) }, func() { p.Close() }, nil
}

func cmdRender(args []string) error {
	out := ""
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&out, "out", out, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, renderUsage)
		return err
	}

	sch, err := catalogSchema()
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	sdl := schema.Render(sch)
	if out == "" {
		fmt.Print(sdl)
		return nil
	}
	return os.WriteFile(out, []byte(sdl), 0o644)
}
