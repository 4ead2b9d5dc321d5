package main

import "gamecov/cmd"

func main() {
	cmd.Execute()
}
