package main

import "github.com/inovacc/datapull/cmd"

func main() {
	cmd.Execute()
}
