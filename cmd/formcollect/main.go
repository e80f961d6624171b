package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"github.com/goliatone/go-formcollect/internal/cli"
)

func main() {
	cmd := cli.NewCommand(cli.Deps{})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "formcollect:", err)
		os.Exit(1)
	}
}
