package hub

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/RiveroDeveloper/boat-ui-interface/internal/hub"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
