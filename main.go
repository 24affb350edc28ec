package main

import "github.com/confload/confload/cmd"

func main() {
	cmd.Execute()
}
