package main

import "github.com/roach88/transitions/internal/cli"

func main() {
	cli.Main()
}
