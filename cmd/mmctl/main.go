package main

import "github.com/mcoot/matchmaker/internal/cli"

func main() {
	cli.Execute()
}
