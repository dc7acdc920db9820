package main

import "github.com/vietddude/akashic/internal/cli"

func main() {
	cli.Execute()
}
