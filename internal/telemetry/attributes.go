package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Span attribute keys.
const (
	ParseIDKey    = "parse.id"
	BuildKey      = "parse.build"
	EventsKey     = "parse.events"
	ModulesKey    = "parse.modules"
	DispatchedKey = "replay.dispatched"
	SkippedKey    = "replay.skipped"
	FaultsKey     = "replay.faults"
	ModuleIDKey   = "module.id"
	ModuleTypeKey = "module.type"
	ErrorTypeKey  = "error.type"
	JobIDKey      = "job.id"
	JobStatusKey  = "job.status"
)

// ParseAttributes describes a parse at the start of its span.
func ParseAttributes(parseID, build string, events, modules int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ParseIDKey, parseID),
		attribute.String(BuildKey, build),
		attribute.Int(EventsKey, events),
		attribute.Int(ModulesKey, modules),
	}
}

// ReplayAttributes summarises a finished replay.
func ReplayAttributes(dispatched, skipped, faults int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(DispatchedKey, dispatched),
		attribute.Int(SkippedKey, skipped),
		attribute.Int(FaultsKey, faults),
	}
}

// ModuleAttributes identifies a module in a span event.
func ModuleAttributes(id, typ string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ModuleIDKey, id),
		attribute.String(ModuleTypeKey, typ),
	}
}
