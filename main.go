package main

import "fundchat-cli/cmd"

func main() {
	cmd.Execute()
}
