// Package config loads and validates the application configuration.
//
// Configuration comes from a JSON file, with a small set of environment
// variables overriding the file for the values that differ between
// deployments:
//
//	STREAMPACE_NATS_URL       NATS server URL
//	STREAMPACE_METRICS_PORT   metrics/health HTTP port
//	STREAMPACE_LOG_LEVEL      debug | info | warn | error
//	STREAMPACE_RECORDING      path to the JSONL recording
//
// Component sections are kept as raw JSON and handed to each component's
// constructor, which owns unmarshalling and validation of its own section.
// Top-level Validate only checks what the host binary needs before it can
// wire components together.
package config
