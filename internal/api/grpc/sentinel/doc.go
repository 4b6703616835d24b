// Package sentinel implements the gRPC transport of the sentinel daemon.
//
// The service sentinel.v1.SentinelService is described by hand over protobuf
// well-known types, so no generated code is needed: monitoring state travels
// as a google.protobuf.Struct, toggles as Int64Value and trigger results as
// BoolValue. Client code uses the same method names and codec helpers.
package sentinel
