// Package infra contains technical adapters: the GasLib loader, MQTT
// service, metrics sinks, fuel KPI storage, chart export and logging. These
// packages depend only on the interfaces defined in the core packages.
package infra
