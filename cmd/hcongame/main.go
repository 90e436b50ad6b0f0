package main

import "github.com/davidwalker2235/hcongame/internal/cli"

func main() {
	cli.Execute()
}
