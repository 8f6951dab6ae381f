package router

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/cellbots/replay/internal/router"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
