package main

import "github.com/boozedog/devserve/cmd"

func main() {
	cmd.Execute()
}
