package main

import (
	"context"

	"github.com/StanfordBioinformatics/trajectoread-monitor/cmd/seqstats/commands"
	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext(context.Background())
	defer cancel()
	commands.ExecuteContext(ctx)
}
