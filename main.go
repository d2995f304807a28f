package main

import "github.com/kamal-hamza/ccw/cmd"

func main() {
	cmd.Execute()
}
