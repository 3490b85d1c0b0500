package main

import "github.com/kebairia/mirrorctl/cmd"

func main() {
	cmd.Execute()
}
