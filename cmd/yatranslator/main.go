package main

import "yatranslator/internal/cli"

func main() {
	cli.Execute()
}
