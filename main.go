package main

import "escalboard/internal/app"

func main() {
	app.Main()
}
