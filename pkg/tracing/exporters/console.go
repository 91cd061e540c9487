package exporters

import (
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
)

// NewConsoleExporter creates a stdout trace exporter for local development.
func NewConsoleExporter() (*stdouttrace.Exporter, error) {
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}
