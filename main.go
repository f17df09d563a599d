// Command trawl browses, searches and resolves media catalogs.
package main

import (
	"github.com/samber/lo"
	"github.com/trawl-media/trawl/cmd"
	"github.com/trawl-media/trawl/config"
	"github.com/trawl-media/trawl/internal/cache"
	"github.com/trawl-media/trawl/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())
	defer log.Close()

	go cache.Prune(cache.TTL)

	cmd.Execute()
}
