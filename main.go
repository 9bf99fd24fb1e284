package main

import "github.com/skaphos/gg/cmd/gg"

var execute = gg.Execute

func main() {
	execute()
}
