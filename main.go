package main

import "github.com/jacquesdev/jacques/cmd"

func main() {
	cmd.Execute()
}
