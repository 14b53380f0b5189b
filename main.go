package main

import "github.com/datapilots/tankcast/cmd"

func main() {
	cmd.Execute()
}
