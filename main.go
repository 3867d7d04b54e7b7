package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/K-Oxon/dbt-view-importer/bigquery"
	"github.com/K-Oxon/dbt-view-importer/depgraph"
	"github.com/K-Oxon/dbt-view-importer/generator"
	"github.com/K-Oxon/dbt-view-importer/importer"
	"github.com/K-Oxon/dbt-view-importer/inmem"
	"github.com/K-Oxon/dbt-view-importer/lineage"
	"github.com/K-Oxon/dbt-view-importer/logging"
	"github.com/K-Oxon/dbt-view-importer/naming"
	"github.com/K-Oxon/dbt-view-importer/postgres"
	"github.com/K-Oxon/dbt-view-importer/view"
)

var (
	appName    = "bq2dbt"
	appVersion = "populated-at-link-time"
)

func main() {
	rootLogger := logrus.New()

	app := cli.NewApp()
	app.Name = appName
	app.Usage = "convert BigQuery views and their dependencies into dbt models"
	app.Version = appVersion
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "verbose, V", Usage: "Enable debug output"},
		cli.StringFlag{Name: "log-dir", Usage: "Directory for per-run log files (defaults to ~/.bq2dbt/logs)"},
	}
	app.Commands = []cli.Command{
		importCommand(rootLogger),
		logsCommand(),
	}

	if err := app.Run(os.Args); err != nil {
		rootLogger.WithField("err", err).Error("shutting down due to error")
		os.Exit(1)
	}
}

func importCommand(rootLogger *logrus.Logger) cli.Command {
	return cli.Command{
		Name:  "import",
		Usage: "import the views of a dataset as dbt model files",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "project, p", Usage: "The GCP project holding the dataset (required)"},
			cli.StringFlag{Name: "dataset, d", Usage: "The dataset whose views are imported (required)"},
			cli.StringFlag{Name: "output-dir, o", Value: "models", Usage: "The directory model files are written to"},
			cli.StringFlag{Name: "naming-preset", Value: string(naming.DefaultPreset), Usage: "The model naming strategy (full, table_only, dataset_without_prefix)"},
			cli.StringSliceFlag{Name: "include-view", Usage: "Glob pattern selecting views to import (repeatable)"},
			cli.StringSliceFlag{Name: "exclude-view", Usage: "Glob pattern removing views from the import (repeatable; wins over includes)"},
			cli.BoolTFlag{Name: "include-dependencies", Usage: "Also import the views the selected views depend on"},
			cli.IntFlag{Name: "max-depth", Value: depgraph.DefaultMaxDepth, Usage: "How many dependency levels to follow from the selected views"},
			cli.IntFlag{Name: "fetch-workers", Value: runtime.NumCPU(), Usage: "The number of concurrent lineage lookups (defaults to number of CPUs)"},
			cli.StringFlag{Name: "lineage-uri", Value: "datacatalog://", Usage: "The URI for connecting to the lineage backend (supported URIs: datacatalog://, postgresql://user@host:5432/db, static:///path/to/catalog.yaml)"},
			cli.StringFlag{Name: "location", Value: lineage.DefaultLocation, Usage: "The Data Catalog location of the dataset"},
			cli.StringFlag{Name: "sql-template", Usage: "Path of a custom .sql model template"},
			cli.StringFlag{Name: "yml-template", Usage: "Path of a custom .yml model template"},
			cli.StringFlag{Name: "yml-prefix", Usage: "Prefix for .yml file names (e.g. '_')"},
			cli.BoolFlag{Name: "overwrite", Usage: "Replace model files that already exist"},
			cli.BoolFlag{Name: "dry-run", Usage: "Resolve and render everything but write no files"},
			cli.BoolFlag{Name: "non-interactive", Usage: "Skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			return runImport(c, rootLogger)
		},
	}
}

func runImport(c *cli.Context, rootLogger *logrus.Logger) error {
	project := c.String("project")
	dataset := c.String("dataset")
	if project == "" || dataset == "" {
		return fmt.Errorf("both --project and --dataset must be specified")
	}

	runLog, err := logging.Setup(rootLogger, logging.Config{
		Dir:     c.GlobalString("log-dir"),
		Verbose: c.GlobalBool("verbose"),
	})
	if err != nil {
		return err
	}
	defer runLog.Close()

	logger := rootLogger.WithFields(logrus.Fields{
		"app": appName,
		"run": runLog.ID,
	})

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGHUP)
		select {
		case s := <-sigCh:
			logger.WithField("signal", s.String()).Info("shutting down due to signal")
			cancelFn()
		case <-ctx.Done():
		}
	}()

	source, provider, closers, err := getBackends(ctx, c.String("lineage-uri"), project, c.String("location"), logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, closer := range closers {
			if err := closer.Close(); err != nil {
				logger.WithField("err", err).Warn("failed to close backend client")
			}
		}
	}()

	outputDir := c.String("output-dir")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	gen, err := generator.New(generator.Config{
		OutputDir:       outputDir,
		Preset:          naming.Preset(c.String("naming-preset")),
		SQLTemplatePath: c.String("sql-template"),
		YMLTemplatePath: c.String("yml-template"),
		YMLPrefix:       c.String("yml-prefix"),
	})
	if err != nil {
		return err
	}

	maxDepth := c.Int("max-depth")
	if !c.BoolT("include-dependencies") {
		maxDepth = -1
	}

	svc, err := importer.NewService(importer.ServiceConfig{
		Source:          source,
		Provider:        provider,
		Generator:       gen,
		MaxDepth:        maxDepth,
		FetchWorkers:    c.Int("fetch-workers"),
		IncludePatterns: c.StringSlice("include-view"),
		ExcludePatterns: c.StringSlice("exclude-view"),
		Preset:          naming.Preset(c.String("naming-preset")),
		Overwrite:       c.Bool("overwrite"),
		DryRun:          c.Bool("dry-run"),
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	seeds, err := source.ListViews(ctx, project, dataset)
	if err != nil {
		return fmt.Errorf("list views in %s.%s: %w", project, dataset, err)
	}
	if len(seeds) == 0 {
		logger.WithFields(logrus.Fields{
			"project": project,
			"dataset": dataset,
		}).Warn("dataset contains no views; nothing to import")
		return nil
	}

	res, err := svc.Resolve(ctx, seeds)
	if err != nil {
		return err
	}
	printPlan(os.Stdout, res)

	if !c.Bool("dry-run") && !c.Bool("non-interactive") {
		ok, err := confirm(os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("import cancelled")
			return nil
		}
	}

	summary, err := svc.ImportResolved(ctx, res)
	if err != nil {
		return err
	}
	printSummary(os.Stdout, summary)
	return nil
}

func printPlan(w io.Writer, res *importer.Resolution) {
	fmt.Fprintf(w, "Import plan (%d models, dependencies first):\n", len(res.Ordered))
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, rv := range res.Ordered {
		marker := ""
		if rv.Boundary {
			marker = "(depth limit reached)"
		}
		fmt.Fprintf(tw, "  %s\t<- %s\t%s\n", rv.ModelName, rv.Ref, marker)
	}
	tw.Flush()
	if len(res.Excluded) > 0 {
		fmt.Fprintf(w, "Excluded by pattern: %d\n", len(res.Excluded))
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

func printSummary(w io.Writer, summary *importer.Summary) {
	fmt.Fprintf(w, "Converted %d views, skipped %d.\n", len(summary.Converted), len(summary.Skipped))
	for _, skipped := range summary.Skipped {
		fmt.Fprintf(w, "  skipped %s: %s\n", skipped.Ref, skipped.Reason)
	}
}

func confirm(in io.Reader, out io.Writer) (bool, error) {
	fmt.Fprint(out, "Proceed with import? [y/N]: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// getBackends retrieves a suitable view source and lineage provider pair for
// the given lineage URI.
func getBackends(ctx context.Context, lineageURI, project, location string, logger *logrus.Entry) (view.Source, view.Provider, []io.Closer, error) {
	if lineageURI == "" {
		return nil, nil, nil, fmt.Errorf("lineage URI must be specified with --lineage-uri")
	}

	uri, err := url.Parse(lineageURI)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not parse lineage URI: %w", err)
	}

	switch uri.Scheme {
	case "datacatalog":
		logger.Info("using BigQuery catalog with Data Catalog lineage")
		source, err := bigquery.NewClient(ctx, project)
		if err != nil {
			return nil, nil, nil, err
		}
		provider, err := lineage.NewProvider(ctx, project, location, logger)
		if err != nil {
			source.Close()
			return nil, nil, nil, err
		}
		return source, provider, []io.Closer{provider, source}, nil
	case "postgres", "postgresql":
		logger.Info("using postgres catalog")
		catalog, err := postgres.NewCatalog(lineageURI)
		if err != nil {
			return nil, nil, nil, err
		}
		return catalog, catalog, []io.Closer{catalog}, nil
	case "static":
		logger.Info("using static catalog")
		catalog, err := inmem.LoadCatalogFile(strings.TrimPrefix(lineageURI, "static://"))
		if err != nil {
			return nil, nil, nil, err
		}
		return catalog, catalog, nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported lineage URI scheme: %q", uri.Scheme)
	}
}

func logsCommand() cli.Command {
	return cli.Command{
		Name:  "logs",
		Usage: "inspect the log files of past runs",
		Subcommands: []cli.Command{
			{
				Name:  "list",
				Usage: "list stored run logs, newest first",
				Flags: []cli.Flag{
					cli.IntFlag{Name: "n", Value: 10, Usage: "The maximum number of logs to list"},
				},
				Action: func(c *cli.Context) error {
					dir, err := resolveLogDir(c)
					if err != nil {
						return err
					}
					entries, err := logging.List(dir, c.Int("n"))
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
					for _, entry := range entries {
						fmt.Fprintf(tw, "%s\t%s\t%d bytes\n", entry.Name, entry.ModTime.Format("2006-01-02 15:04:05"), entry.Size)
					}
					return tw.Flush()
				},
			},
			{
				Name:  "show",
				Usage: "print one run log (the most recent by default)",
				Flags: []cli.Flag{
					cli.StringFlag{Name: "name", Usage: "The log file name to show instead of the latest"},
					cli.IntFlag{Name: "n", Value: 1, Usage: "Show the n-th most recent run log"},
				},
				Action: func(c *cli.Context) error {
					dir, err := resolveLogDir(c)
					if err != nil {
						return err
					}
					name := c.String("name")
					if name == "" {
						n := c.Int("n")
						if n < 1 {
							return fmt.Errorf("-n must be at least 1")
						}
						entries, err := logging.List(dir, n)
						if err != nil {
							return err
						}
						if len(entries) < n {
							return fmt.Errorf("only %d run logs stored in %s", len(entries), dir)
						}
						name = entries[n-1].Name
					}
					content, err := logging.Read(dir, name)
					if err != nil {
						return err
					}
					fmt.Printf("== %s\n%s", name, content)
					return nil
				},
			},
		},
	}
}

func resolveLogDir(c *cli.Context) (string, error) {
	if dir := c.GlobalString("log-dir"); dir != "" {
		return dir, nil
	}
	return logging.DefaultDir()
}
