package main

import "github.com/gregriff/stegochat/cmd"

func main() {
	cmd.Execute()
}
