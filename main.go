package main

import "booru-sync/cmd"

func main() {
	cmd.Execute()
}
