// Command sqldrive drives a relational database through a user-supplied
// parameterised SQL statement at a targeted rate or load percentage,
// reporting throughput and latency.
package main

import (
	"context"
	"os"

	"sqldrive/config"
	"sqldrive/engine"
	"sqldrive/rlog"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	props, err := config.ParseArgs(args)
	if err != nil {
		rlog.Fatalf("%v", err)
	}

	if props.GetDefault(config.Help, "false") == "true" {
		config.Usage()
		return 0
	}

	rlog.SetLevel(rlog.ParseLevel(props.Get(config.LogLevel)))

	if props.GetDefault(config.Check, "false") == "true" {
		config.Dump(props)
		return 0
	}

	if _, err := engine.Run(context.Background(), props); err != nil {
		rlog.Fatalf("%v", err)
	}
	return 0
}
