// Command fhirbench runs the cross-implementation FHIR server benchmark suite and
// prints the resulting JSON report to stdout.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/karlmdavis/fhir-benchmarks/internal/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.WithError(err).Error("benchmark run failed")
		os.Exit(1)
	}
}
