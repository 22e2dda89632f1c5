package main

import "github.com/whaleen/warehouse-sub004/cmd"

func main() {
	cmd.Execute()
}
