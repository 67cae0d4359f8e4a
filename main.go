package main

import "github.com/jcdickinson/crystalref/cmd"

func main() {
	cmd.Execute()
}
