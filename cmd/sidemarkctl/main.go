package main

import (
	"os"

	"github.com/MrSnakeDoc/sidemark/internal/cli"
	"github.com/MrSnakeDoc/sidemark/internal/version"
)

func main() {
	if err := cli.Run(version.Version); err != nil {
		os.Exit(1)
	}
}
