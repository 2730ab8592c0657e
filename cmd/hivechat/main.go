package main

import "github.com/saithsab877/hivechat/internal/commands"

func main() {
	commands.Execute()
}
