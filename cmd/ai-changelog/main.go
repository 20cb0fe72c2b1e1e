package main

import "github.com/adamking/ai-changelog/internal/cli"

func main() {
	cli.Execute()
}
