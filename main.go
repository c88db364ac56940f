package main

import "github.com/stocklane/inventory-management/cmd"

func main() {
	cmd.Execute()
}
