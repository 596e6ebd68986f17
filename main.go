package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/config"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/db"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/export"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/export/rodpdf"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/ingest"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/logger"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/server/httpapi"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/storage"
)

func main() {
	cfg := config.NewDefaultConfig()

	// Command-line flags override values from the config file. Their default
	// values come from the initial cfg for consistent -help messages.
	configPath := flag.String("config", "config.toml", "Path to TOML configuration file")

	fLogOutput := flag.String("logoutput", cfg.Logging.Output, "Log output destination: 'stdout', 'stderr' or a file path (overrides config)")
	fLogLevel := flag.String("loglevel", cfg.Logging.Level, "Log level: debug, info, warn, error (overrides config)")

	fDbHost := flag.String("dbhost", cfg.Database.Host, "Database host (overrides config)")
	fDbPort := flag.String("dbport", cfg.Database.Port, "Database port (overrides config)")
	fDbUser := flag.String("dbuser", cfg.Database.User, "Database user (overrides config)")
	fDbPassword := flag.String("dbpassword", cfg.Database.Password, "Database password (overrides config)")
	fDbName := flag.String("dbname", cfg.Database.Name, "Database name (overrides config)")
	fDbTLS := flag.Bool("dbtls", cfg.Database.TLSMode, "Enable TLS for database connection (overrides config)")
	fDbLogQueries := flag.Bool("dblogqueries", cfg.Database.LogQueries, "Log all database queries (overrides config)")

	fS3Endpoint := flag.String("s3endpoint", cfg.S3.Endpoint, "S3 endpoint (overrides config)")
	fS3AccessKey := flag.String("s3accesskey", cfg.S3.AccessKey, "S3 access key (overrides config)")
	fS3SecretKey := flag.String("s3secretkey", cfg.S3.SecretKey, "S3 secret key (overrides config)")
	fS3Bucket := flag.String("s3bucket", cfg.S3.Bucket, "S3 bucket name (overrides config)")
	fS3Trace := flag.Bool("s3trace", cfg.S3.Trace, "Trace S3 operations (overrides config)")

	fAddr := flag.String("addr", cfg.Server.Addr, "HTTP API listen address (overrides config)")
	fPDF := flag.Bool("pdf", cfg.PDF.Enabled, "Enable PDF export (overrides config)")

	flag.Parse()

	// Values from the TOML file override the application defaults.
	if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
		if os.IsNotExist(err) {
			if isFlagSet("config") {
				log.Fatalf("Error: Specified configuration file '%s' not found: %v", *configPath, err)
			}
			log.Printf("WARNING: Default configuration file '%s' not found. Using application defaults and command-line flags.", *configPath)
		} else {
			log.Fatalf("Error parsing configuration file '%s': %v", *configPath, err)
		}
	} else {
		log.Printf("Loaded configuration from %s", *configPath)
	}

	applyFlagOverrides(&cfg, flagOverrides{
		logOutput: fLogOutput, logLevel: fLogLevel,
		dbHost: fDbHost, dbPort: fDbPort, dbUser: fDbUser, dbPassword: fDbPassword,
		dbName: fDbName, dbTLS: fDbTLS, dbLogQueries: fDbLogQueries,
		s3Endpoint: fS3Endpoint, s3AccessKey: fS3AccessKey, s3SecretKey: fS3SecretKey,
		s3Bucket: fS3Bucket, s3Trace: fS3Trace,
		addr: fAddr, pdfEnabled: fPDF,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logFile, err := logger.Initialize(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the shared store handles once and pass them down; nothing below
	// this point reaches for globals.
	database, err := db.NewDatabase(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", "error", err)
	}
	defer database.Close()

	blobStore, err := storage.New(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, cfg.S3.UseTLS, cfg.S3.Trace)
	if err != nil {
		logger.Fatal("Failed to initialize attachment storage", "error", err)
	}
	if err := blobStore.EnsureBucket(ctx); err != nil {
		logger.Fatal("Failed to prepare attachment bucket", "error", err)
	}

	var renderer export.Renderer
	if cfg.PDF.Enabled {
		renderer, err = rodpdf.New(cfg.PDF)
		if err != nil {
			logger.Fatal("Failed to initialize PDF renderer", "error", err)
		}
	} else {
		logger.Warn("PDF export is disabled")
	}

	pipeline := ingest.NewPipeline(database, blobStore)

	apiServer, err := httpapi.New(database, blobStore, pipeline, httpapi.ServerOptions{
		Addr:          cfg.Server.Addr,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Renderer:      renderer,
	})
	if err != nil {
		logger.Fatal("Failed to create HTTP API server", "error", err)
	}

	if err := apiServer.Start(ctx); err != nil {
		logger.Fatal("HTTP API server failed", "error", err)
	}

	logger.Info("Shutdown complete")
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
