package main

import (
	"context"
	"log"
	"os"

	"github.com/goliatone/go-formdemo/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background(), os.Args[1:]); err != nil {
		log.Fatalf("formdemo: %v", err)
	}
}
