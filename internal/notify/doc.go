// Package notify shows status notifications and permission prompts.
//
// LogSink writes them to the log, MQTTSink publishes them to the device and
// MultiSink fans one notification out to several sinks. StaticGate answers
// permission checks from configuration.
package notify
