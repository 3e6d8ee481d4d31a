package main

import "github.com/outship-io/outship/internal/cmd"

func main() {
	cmd.Execute()
}
