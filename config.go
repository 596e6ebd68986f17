package main

import "github.com/tebohomanyeli/Timeline-App-Fullstack/config"

// flagOverrides carries the parsed command-line flags that may override
// values loaded from the TOML configuration file.
type flagOverrides struct {
	logOutput, logLevel *string

	dbHost, dbPort, dbUser, dbPassword, dbName *string
	dbTLS, dbLogQueries                        *bool

	s3Endpoint, s3AccessKey, s3SecretKey, s3Bucket *string
	s3Trace                                        *bool

	addr       *string
	pdfEnabled *bool
}

// applyFlagOverrides applies explicitly set flags on top of the loaded
// configuration. Precedence: command-line flag > TOML file > default.
func applyFlagOverrides(cfg *config.Config, f flagOverrides) {
	if isFlagSet("logoutput") {
		cfg.Logging.Output = *f.logOutput
	}
	if isFlagSet("loglevel") {
		cfg.Logging.Level = *f.logLevel
	}

	if isFlagSet("dbhost") {
		cfg.Database.Host = *f.dbHost
	}
	if isFlagSet("dbport") {
		cfg.Database.Port = *f.dbPort
	}
	if isFlagSet("dbuser") {
		cfg.Database.User = *f.dbUser
	}
	if isFlagSet("dbpassword") {
		cfg.Database.Password = *f.dbPassword
	}
	if isFlagSet("dbname") {
		cfg.Database.Name = *f.dbName
	}
	if isFlagSet("dbtls") {
		cfg.Database.TLSMode = *f.dbTLS
	}
	if isFlagSet("dblogqueries") {
		cfg.Database.LogQueries = *f.dbLogQueries
	}

	if isFlagSet("s3endpoint") {
		cfg.S3.Endpoint = *f.s3Endpoint
	}
	if isFlagSet("s3accesskey") {
		cfg.S3.AccessKey = *f.s3AccessKey
	}
	if isFlagSet("s3secretkey") {
		cfg.S3.SecretKey = *f.s3SecretKey
	}
	if isFlagSet("s3bucket") {
		cfg.S3.Bucket = *f.s3Bucket
	}
	if isFlagSet("s3trace") {
		cfg.S3.Trace = *f.s3Trace
	}

	if isFlagSet("addr") {
		cfg.Server.Addr = *f.addr
	}
	if isFlagSet("pdf") {
		cfg.PDF.Enabled = *f.pdfEnabled
	}
}
