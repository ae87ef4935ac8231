// Package tracing provides OpenTelemetry distributed tracing for Meridian.
//
// The package implements W3C Trace Context propagation, span creation, and
// trace export to an OTLP gRPC collector. Spans cover the gateway request,
// each dispatch attempt, and recovery probes, so a failover chain shows up
// as a sequence of attempt spans under one request span.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "meridian.dispatch")
//	defer span.End()
//
//	span.SetAttributes(
//	    attribute.String("endpoint", "/fast"),
//	    attribute.String("provider", "openai-main"),
//	)
//
// When tracing is disabled in configuration, New returns a noop tracer so
// call sites need no conditional logic.
package tracing
