package main

import "github.com/thrash-lab/viability-test/internal/cli"

func main() {
	cli.Execute()
}
