package main

import "github.com/s22625/execmon/internal/cli"

func main() {
	cli.Execute()
}
