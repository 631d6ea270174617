package main

import "hraccess/internal/app/server"

func main() {
	server.Run()
}
