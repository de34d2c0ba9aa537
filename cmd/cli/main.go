package main

import (
	"github.com/leadctl/leadctl/pkg/cli"
)

func main() {
	cli.Execute()
}
