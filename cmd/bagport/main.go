// Command bagport packages repository exports as BagIt archives and
// prepares received archives for import.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
