package main

import (
	"os"

	"github.com/Flushot/sqlparse/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	os.Exit(cli.GetExitCode(err))
}
