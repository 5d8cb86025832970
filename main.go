package main

import "sg2pl/cmd"

func main() {
	cmd.Execute()
}
