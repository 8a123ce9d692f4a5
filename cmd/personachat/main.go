package main

import "github.com/personachat/personachat/internal/cli"

func main() {
	cli.Execute()
}
