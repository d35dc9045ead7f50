// Package ingest brings sensor data in from outside the REST API: a live
// MQTT subscription to the device topic, and JSON or NDJSON files for
// offline runs.
package ingest
