package main

import "github.com/KaramelBytes/telefilter/cmd"

func main() {
	cmd.Execute()
}
