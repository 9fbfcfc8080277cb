package main

import "github.com/rustyeddy/arena/internal/cli"

func main() {
	cli.Execute()
}
