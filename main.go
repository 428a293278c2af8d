package main

import "github.com/nextlevelbuilder/audioagents/cmd"

func main() {
	cmd.Execute()
}
