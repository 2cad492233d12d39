package main

import (
	"log"
	"os"

	"github.com/gqlmcp/graphql-mcp/app"
)

func main() {
	if err := app.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
