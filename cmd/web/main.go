// @title           Trust court cases API
// @version         1.0
// @description     API для управления судебными делами благотворительного фонда.
// @host            localhost:4000
// @BasePath        /api/v1

package main

import "trust_backend/internal/app"

func main() {
	app.Run()
}
