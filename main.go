package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/planetscale/connect/hubspot/cmd/hubspot-source"
)

var (
	version string
	commit  string
	date    string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	hubspot_source.Execute(ctx, version, commit, date)
}
