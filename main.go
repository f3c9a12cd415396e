package main

import (
	"log"

	"resume-optimizer/internal/app"
)

// @title Resume Optimizer API
// @version 1.0
// @description AI-assisted resume optimization service with profile management, ATS scoring and PDF export.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
