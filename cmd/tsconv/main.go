package main

import "github.com/iwangdonghui/tsconv-sub005/internal/cli"

func main() {
	cli.Execute()
}
