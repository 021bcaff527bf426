// Package updater fans the registry lookups out over a worker pool.
package updater

import (
	"sync"

	"github.com/devbump/bumpall/internal/cache"
	"github.com/devbump/bumpall/internal/cli"
	"github.com/devbump/bumpall/internal/dependency"
	"github.com/devbump/bumpall/internal/logger"
)

// FetchNewVersions resolves the next version for every dependency. Each
// worker announces the package it is on via currentPackage and signals
// processed exactly once per dependency, so the caller can drive a progress
// bar off the two channels.
func FetchNewVersions(deps dependency.Dependencies, flags *cli.Flags, processed chan<- bool, currentPackage chan<- string, store *cache.Cache) {
	numWorkers := flags.CPUs
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(deps) {
		numWorkers = len(deps)
	}

	jobs := make(chan *dependency.Dependency, len(deps))

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for dep := range jobs {
				currentPackage <- dep.PackageName

				if err := dep.FetchNewVersion(flags, store); err != nil {
					logger.L().Debugw("version lookup failed",
						"package", dep.PackageName,
						"error", err,
					)
				}

				processed <- true
			}
		}()
	}

	for _, dep := range deps {
		jobs <- dep
	}
	close(jobs)

	wg.Wait()
}
