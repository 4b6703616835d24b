package main

import "github.com/oshokin/sos-sentinel/cmd/sos-sentinel/cmd"

func main() {
	cmd.Execute()
}
