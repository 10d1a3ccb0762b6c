package main

import "github.com/pfrederiksen/hktraffic/internal/cli"

func main() {
	cli.Execute()
}
