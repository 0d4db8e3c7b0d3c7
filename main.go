package main

import "freight-reconciler/cmd"

func main() {
	cmd.Execute()
}
