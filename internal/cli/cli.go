package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pfrederiksen/hktraffic/internal/config"
	"github.com/pfrederiksen/hktraffic/internal/crawler"
	"github.com/pfrederiksen/hktraffic/internal/logger"
	"github.com/pfrederiksen/hktraffic/internal/news"
	"github.com/pfrederiksen/hktraffic/internal/osm"
	"github.com/pfrederiksen/hktraffic/internal/roads"
	"github.com/pfrederiksen/hktraffic/internal/scraper"
	"github.com/pfrederiksen/hktraffic/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig  string
	flagDataDir string
	flagFormat  string
	flagRows    int
	flagVerbose bool

	flagStart       string
	flagDays        int
	flagURLTemplate string
	flagNewsOutput  string
	flagNoProgress  bool

	flagRoadsURL    string
	flagRoadsOutput string

	flagAddress     string
	flagDist        float64
	flagNetworkType string
	flagFigure      string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hktraffic",
		Short: "Collect Hong Kong traffic news and road datasets",
		Long: `A CLI tool to collect Hong Kong traffic datasets.
Crawls the daily RTHK traffic news archive, the road names table and the
OpenStreetMap road network, and writes each one as CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Define flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	pf.StringVar(&flagDataDir, "data-dir", storage.DefaultDataDir, "Directory for CSV datasets")
	pf.StringVar(&flagFormat, "format", "text", "Output format: text or json")
	pf.IntVar(&flagRows, "rows", 10, "Rows to preview in text output (0 for all)")
	pf.BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newNewsCmd(), newRoadsCmd(), newOSMCmd())

	return cmd
}

func newNewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Crawl the daily traffic news archive",
		Args:  cobra.NoArgs,
		RunE:  runNews,
	}

	cmd.Flags().StringVar(&flagStart, "start", "", "First day to crawl (YYYY-MM-DD)")
	cmd.Flags().IntVar(&flagDays, "days", 0, "Number of days to crawl")
	cmd.Flags().StringVar(&flagURLTemplate, "url-template", "", "Listing URL with a {date} placeholder")
	cmd.Flags().StringVar(&flagNewsOutput, "output", "", "CSV file name inside the data directory")
	cmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

func newRoadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roads",
		Short: "Download the road names table",
		Args:  cobra.NoArgs,
		RunE:  runRoads,
	}

	cmd.Flags().StringVar(&flagRoadsURL, "url", "", "Road names endpoint")
	cmd.Flags().StringVar(&flagRoadsOutput, "output", "", "CSV file name inside the data directory")

	return cmd
}

func newOSMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "osm",
		Short: "Download the road network around an address",
		Args:  cobra.NoArgs,
		RunE:  runOSM,
	}

	cmd.Flags().StringVar(&flagAddress, "address", "", "Address to centre the network on")
	cmd.Flags().Float64Var(&flagDist, "dist", 0, "Distance in metres from the address")
	cmd.Flags().StringVar(&flagNetworkType, "network-type", "", "Network type: drive, drive_service, walk or all")
	cmd.Flags().StringVar(&flagFigure, "figure", "", "Network image path (empty string disables it)")

	return cmd
}

// loadConfig layers the config file and any changed flags over the defaults
func loadConfig(cmd *cobra.Command) (*config.Config, OutputFormat, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return nil, "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.LoadConfig(flagConfig)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = flagDataDir
	}
	if flagVerbose {
		cfg.Logging.Level = string(logger.LevelDebug)
	}

	switch cmd.Name() {
	case "news":
		if flags.Changed("start") {
			cfg.News.StartDate = flagStart
		}
		if flags.Changed("days") {
			cfg.News.Days = flagDays
		}
		if flags.Changed("url-template") {
			cfg.News.URLTemplate = flagURLTemplate
		}
		if flags.Changed("output") {
			cfg.News.Output = flagNewsOutput
		}
	case "roads":
		if flags.Changed("url") {
			cfg.Roads.URL = flagRoadsURL
		}
		if flags.Changed("output") {
			cfg.Roads.Output = flagRoadsOutput
		}
	case "osm":
		if flags.Changed("address") {
			cfg.OSM.Address = flagAddress
		}
		if flags.Changed("dist") {
			cfg.OSM.Dist = flagDist
		}
		if flags.Changed("network-type") {
			cfg.OSM.NetworkType = flagNetworkType
		}
		if flags.Changed("figure") {
			cfg.OSM.FigureOutput = flagFigure
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, "", err
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	logger.DefaultMetrics().Reset()

	logger.Debug("configuration loaded", logger.Fields{"config": cfg.String()})

	return cfg, format, nil
}

// runNews crawls the listing archive and exports the deduplicated records
func runNews(cmd *cobra.Command, args []string) error {
	cfg, format, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	start, err := cfg.News.Start()
	if err != nil {
		return err
	}

	// Initialize storage before crawling so a bad data dir fails fast
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	sc := scraper.New(
		scraper.WithURLTemplate(cfg.News.URLTemplate),
		scraper.WithUserAgent(cfg.HTTP.UserAgent),
		scraper.WithTimeout(cfg.HTTP.Timeout()),
	)

	var opts []crawler.Option
	if !flagNoProgress {
		opts = append(opts, crawler.WithReporter(newProgressReporter(cmd.ErrOrStderr())))
	}

	c, err := crawler.New(sc, crawler.Config{Start: start, Days: cfg.News.Days}, opts...)
	if err != nil {
		return err
	}

	collection, err := c.Run(cmd.Context())
	if err != nil {
		return err
	}

	return export(cmd.OutOrStdout(), store, format, cfg.News.Output, &Table{
		Title:   "Traffic news",
		Columns: news.Columns,
		Rows:    collection.Rows(),
	})
}

// runRoads downloads the road names table
func runRoads(cmd *cobra.Command, args []string) error {
	cfg, format, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	logger.Info("fetching road names", logger.Fields{"url": cfg.Roads.URL})

	client := roads.NewClient(cfg.Roads.URL, cfg.HTTP.UserAgent, cfg.HTTP.Timeout())
	list, err := client.Fetch(cmd.Context())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		logger.Warn("road list is empty", logger.Fields{"url": cfg.Roads.URL})
	}

	return export(cmd.OutOrStdout(), store, format, cfg.Roads.Output, &Table{
		Title:   "Roads",
		Columns: roads.Columns,
		Rows:    roads.Rows(list),
	})
}

// runOSM downloads the road network and exports its nodes and edges
func runOSM(cmd *cobra.Command, args []string) error {
	cfg, format, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	nt, err := osm.ParseNetworkType(cfg.OSM.NetworkType)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	logger.Info("fetching road network", logger.Fields{
		"address":      cfg.OSM.Address,
		"dist":         cfg.OSM.Dist,
		"network_type": string(nt),
	})

	client := osm.NewClient(cfg.OSM.NominatimURL, cfg.OSM.OverpassURL, cfg.HTTP.UserAgent, cfg.HTTP.Timeout())
	g, err := client.GraphFromAddress(cmd.Context(), cfg.OSM.Address, cfg.OSM.Dist, nt)
	if err != nil {
		return err
	}

	switch {
	case len(g.Edges) == 0:
		logger.Warn("road network is empty", logger.Fields{"address": cfg.OSM.Address})
	case cfg.OSM.FigureOutput != "":
		if err := g.SavePlot(cfg.OSM.FigureOutput); err != nil {
			return err
		}
		logger.Info("figure written", logger.Fields{"path": cfg.OSM.FigureOutput})
	}

	if err := export(cmd.OutOrStdout(), store, format, cfg.OSM.NodesOutput, &Table{
		Title:   "OSM nodes",
		Columns: osm.NodeColumns,
		Rows:    g.NodeRows(),
	}); err != nil {
		return err
	}

	return export(cmd.OutOrStdout(), store, format, cfg.OSM.EdgesOutput, &Table{
		Title:   "OSM edges",
		Columns: osm.EdgeColumns,
		Rows:    g.EdgeRows(),
	})
}

// export prints the table preview, then writes the full table as CSV
func export(w io.Writer, store *storage.Storage, format OutputFormat, name string, t *Table) error {
	if err := WriteOutput(w, t, format, flagRows); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	path, err := store.SaveCSV(name, t.Columns, t.Rows)
	if err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	logger.IncrCounter("csv.files_written")

	logger.Info("dataset written", logger.Fields{
		"path": path,
		"rows": len(t.Rows),
	})
	logger.Info("run metrics", logger.MetricsSnapshot())

	return nil
}

// run executes the command tree and returns the process exit code.
// A failure is logged once at ERROR.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	logger.SetDefault(logger.New(logger.LevelInfo, stderr))

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", logger.Fields{
			"interrupted": errors.Is(err, context.Canceled),
		}, err)
		return ExitError
	}

	return ExitSuccess
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
