package main

import "semcache/cmd/semcache-cli/cmd"

func main() {
	cmd.Execute()
}
