package main

import "github.com/peekknuf/anonscore/cmd"

func main() {
	cmd.Execute()
}
