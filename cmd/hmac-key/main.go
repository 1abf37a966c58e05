// Package main generates a Slack signing secret for the points webhook.
package main

import (
	"flag"
	"os"

	"github.com/lumenad-public/HogwartsForSlack/internal/platform/config"
	"github.com/lumenad-public/HogwartsForSlack/internal/tools/hmackey"
)

func main() {
	cfg, err := hmackey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := hmackey.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate key: %v", err)
	}
}
