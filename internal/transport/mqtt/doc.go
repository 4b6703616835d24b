// Package mqtt connects the sentinel to the device broker.
//
// Every topic lives under one prefix: the device publishes screen events on
// "<prefix>/screen", the sentinel publishes notifications and permission
// prompts back.
package mqtt
