package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sushigram/configtool/cmd/cli"
)

func main() {
	if err := cli.GetCommandOptions().Execute(); err != nil {
		logrus.Debugf("Command failed: %v", err)
		os.Exit(1)
	}
}
