package main

import "github.com/pfrederiksen/staatsoper-tickets/internal/cli"

func main() {
	cli.Execute()
}
