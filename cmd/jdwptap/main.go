package main

import "github.com/jdwptap/jdwptap/internal/cli"

func main() {
	cli.Execute()
}
