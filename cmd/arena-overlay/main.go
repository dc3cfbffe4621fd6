package main

import "github.com/ramonehamilton/arena-overlay/cmd/arena-overlay/cmd"

func main() {
	cmd.Execute()
}
