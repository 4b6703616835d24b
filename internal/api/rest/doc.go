// Package rest exposes the sentinel control surface over HTTP with gin.
//
// Routes mirror the gRPC service and add /healthz and the Prometheus
// /metrics endpoint.
package rest
