package main

import "github.com/harrowmud/harrow/cli/cmd"

func main() {
	cmd.Execute()
}
