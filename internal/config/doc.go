// Package config loads the settings of the raster tools.
//
// # Environment Variables
//
// Process-wide knobs use the RASTERTOOLS_ prefix:
//
//	RASTERTOOLS_MAXWORKERS=8        worker goroutines per run (0 = one per CPU)
//	RASTERTOOLS_NOTQDM=true         disable progress log lines
//	RASTERTOOLS_LOG_LEVEL=debug     debug, info, warn or error
//	RASTERTOOLS_LOG_FORMAT=json     text or json
//	RASTERTOOLS_METRICS_ADDR=:9090  serve Prometheus metrics on this address
//
// None of them changes what a run computes, only how fast it goes and what
// it reports.
//
// # Job Files
//
// A job file describes one filtering run in YAML:
//
//	input: dem.rtr
//	output: out/dem_median.rtr
//	filter: median
//	window_size: 512
//	overlap: 4
//	pad_mode: symmetric
//	bands: [1]
//	args:
//	  kernel_size: 9
//
// Unknown keys are rejected. Job settings take precedence over the
// environment.
package config
