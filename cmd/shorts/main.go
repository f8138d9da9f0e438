package main

import "github.com/akeslo/AI-Youtube-Shorts-Generator/internal/cli"

func main() {
	cli.Main()
}
