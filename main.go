package main

import "github.com/dyike/CapitalGo/internal/cli"

func main() {
	cli.Run()
}
