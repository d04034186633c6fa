package bilibili

import (
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("influence.platforms.bilibili")
