package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/appli/internal/admincli"
)

func main() {
	cmd := admincli.NewRootCmd(admincli.DefaultRuntime())
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
