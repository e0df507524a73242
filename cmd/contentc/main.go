// Command contentc pre-compiles the JSON content tables under a
// content root into the binary caches the realm loader prefers at
// boot. Run it as a deploy step so a cold realm start never pays the
// JSON parse cost; it also doubles as a content validation gate, since
// a table or encounter that fails to compile fails the deploy instead
// of the boot.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/content"
)

func main() {
	root := flag.String("root", "data/content", "content root directory")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	cat, err := content.Precompile(*root, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "precompile failed: %v\n", err)
		os.Exit(1)
	}
	encounters, err := content.LoadEncounters(*root, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encounter validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("compiled %d creatures, %d items, %d spells, %d loot tables, %d splines, %d spawns, %d encounters\n",
		cat.Creatures.Count(), cat.Items.Count(), cat.Spells.Count(),
		cat.LootTables.Count(), cat.Splines.Count(), cat.Spawns.Count(), len(encounters))
}
