package main

import cli "piview/internal/status-cli"

func main() {
	cli.Execute()
}
