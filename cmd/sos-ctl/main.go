package main

import "github.com/oshokin/sos-sentinel/cmd/sos-ctl/cmd"

func main() {
	cmd.Execute()
}
