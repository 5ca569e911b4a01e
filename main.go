package main

import "backpack-manager/cmd"

func main() {
	cmd.Execute()
}
