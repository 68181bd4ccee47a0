package main

import "remote-apt-dater/internal/cli"

func main() {
	cli.Execute()
}
