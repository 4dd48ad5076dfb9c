package main

import "github.com/iksnae/chat-session/cmd"

func main() {
	cmd.Execute()
}
