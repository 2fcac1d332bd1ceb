package main

import (
	"smarterd/internal/cli"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
