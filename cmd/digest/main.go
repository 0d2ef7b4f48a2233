// Command digest serves the imaging digest dashboard. It can start empty and
// accept uploads through the web UI, or preload a dataset at startup from a
// local path, an HTTP URL, or a Postgres table.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"digest/internal/dataset"
	"digest/internal/datasource"
	"digest/internal/datasource/file"
	"digest/internal/datasource/httpds"
	"digest/internal/datasource/pg"
	"digest/internal/ingest"
	"digest/internal/metrics"
	"digest/internal/metrics/prompush"
	"digest/internal/webui"
)

func main() {
	var (
		addr              string
		loadPath          string
		loadURL           string
		pgDSN             string
		pgTable           string
		metricsBackendFlg string
		pushGatewayURLFlg string
	)

	flag.StringVar(&addr, "addr", ":8080", "listen address, e.g. :8080")
	flag.StringVar(&loadPath, "load", "", "preload a digest CSV from a local path")
	flag.StringVar(&loadURL, "load-url", "", "preload a digest CSV from an HTTP URL")
	flag.StringVar(&pgDSN, "pg-dsn", "", "preload from Postgres: connection string")
	flag.StringVar(&pgTable, "pg-table", "", "preload from Postgres: table name (e.g. public.digest)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (e.g. pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupMetrics(metricsBackendFlg, pushGatewayURLFlg, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	srv := webui.NewServer(webui.Config{Addr: addr})

	ds, err := preload(ctx, loadPath, loadURL, pgDSN, pgTable)
	if err != nil {
		fatalf("preload: %v", err)
	}
	if ds != nil {
		srv.SetPreload(ds)
		if *verbose {
			log.Printf("preloaded dataset: %d pipelines, %d sessions",
				len(ds.PipelineLabels), len(ds.Sessions))
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("%v", err)
	}
}

// preload builds the startup dataset from whichever source flag is set. At
// most one of path, URL, and Postgres may be given.
func preload(ctx context.Context, path, url, dsn, table string) (*dataset.Dataset, error) {
	set := 0
	if path != "" {
		set++
	}
	if url != "" {
		set++
	}
	if dsn != "" || table != "" {
		set++
	}
	if set > 1 {
		return nil, fmt.Errorf("choose one of -load, -load-url, or -pg-dsn/-pg-table")
	}

	switch {
	case path != "":
		return fromSource(ctx, file.NewLocal(path))
	case url != "":
		return fromSource(ctx, httpds.NewRemote(url, httpds.Config{}))
	case dsn != "" || table != "":
		if dsn == "" || table == "" {
			return nil, fmt.Errorf("both -pg-dsn and -pg-table are required")
		}
		long, err := pg.Load(ctx, pg.Config{DSN: dsn, Table: table})
		if err != nil {
			return nil, err
		}
		return ingest.IngestTable(long)
	}
	return nil, nil
}

func fromSource(ctx context.Context, src datasource.Source) (*dataset.Dataset, error) {
	contents, err := datasource.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return ingest.Ingest(contents, src.Name())
}

// setupMetrics decides the metrics backend: flag → env → default nop.
func setupMetrics(backendName, gwURL string, verbose bool) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend("digest_dashboard", gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: url=%v, backend=%v", gwURL, backendName)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
