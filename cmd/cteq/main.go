// Command cteq composes typed CTE chains into SQL.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/cteq/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
