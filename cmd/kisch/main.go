package main

import "github.com/OpenTraceLab/kisch/cmd/kisch/cmd"

func main() {
	cmd.Execute()
}
