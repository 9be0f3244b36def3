package main

import "github.com/colmago/colmago/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
