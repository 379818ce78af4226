// Package main provides the croptalk command.
//
// Serve the retrieval API:
//
//	croptalk serve
//
// Score retrieval against a labeled evaluation set:
//
//	croptalk eval --eval-path cases/eval.csv --mode functions
//
// Create the passage index and load passages:
//
//	croptalk index
//	croptalk ingest passages.jsonl
//
// Configuration is read from config/<ENV>.yaml (ENV defaults to "local")
// unless --config names a file.
package main

import (
	"os"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
