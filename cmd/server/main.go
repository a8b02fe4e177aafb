package main

import "remuneraciones/internal/app/server"

func main() {
	server.Run()
}
