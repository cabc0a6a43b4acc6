package main

import "github.com/ppiankov/plo/internal/cli"

func main() {
	cli.Execute()
}
