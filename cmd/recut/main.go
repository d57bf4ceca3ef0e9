package main

import "github.com/forPelevin/recut/internal/cli"

func main() {
	cli.Main()
}
