package main

import "github.com/raaihank/bias-auditor/internal/cli"

func main() {
	cli.Execute()
}
