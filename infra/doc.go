// Package infra contains the adapters between simulation runs and the
// outside world: logging, MQTT, metrics exporters and error monitoring.
// These packages depend only on interfaces defined in the core packages.
package infra
