package main

import (
	"log"

	"github.com/fazecat/tokensentry/cmd"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cmd.Execute()
}
