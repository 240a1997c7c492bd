package main

import "github.com/mmynk/foodgram/cmd/foodgram/commands"

func main() {
	commands.Execute()
}
