package main

import "construction-marketplace-api/app"

func main() {
	app.Run()
}
