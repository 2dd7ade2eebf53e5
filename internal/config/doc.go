// Package config loads settings for the cubeb tools.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// CUBEB_* environment variables. Command-line flags are applied last by the
// caller.
//
//	backend: pipe
//	latency_ms: 40
//	volume: 0.8
//	log:
//	  level: debug
//	  file: cubeb-play.log
//	metrics:
//	  addr: 127.0.0.1:9464
package config
