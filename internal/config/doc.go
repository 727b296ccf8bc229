// Package config loads edom.yaml, the configuration file of the edom
// command.
//
// Every key is optional; missing keys keep the defaults returned by New.
// Unknown keys are an error.
//
// # Configuration File Structure
//
//	server:
//	  address: ":8080"
//	  title: "rows"
//	  idle_timeout: 5m
//	  max_sessions: 1000
//	  allowed_origins: ["https://example.com"]
//	engine:
//	  list_cloning: true
//	  partial_clone: false
//	log:
//	  level: debug
//	  format: json
//	snapshot:
//	  driver: s3
//	  max_age: 24h
//	  s3:
//	    bucket: edom-snapshots
//	    region: eu-west-1
//	metrics:
//	  enabled: true
//	tracing:
//	  enabled: true
//	bench:
//	  rows: 1000
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(app, cfg.ServerConfig(),
//	    server.WithEngineOptions(cfg.EngineOptions()...))
package config
