package main

import "go-mod.ewintr.nl/fluxreader/cli"

func main() {
	cli.Execute()
}
