package main

import "github.com/mcoot/cardtally/internal/cli"

func main() {
	cli.Execute()
}
