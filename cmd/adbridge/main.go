package main

import "github.com/devicelab-dev/adbridge/pkg/cli"

func main() {
	cli.Execute()
}
