// Command devtoken prints a bearer token for calling the API locally.  It
// signs with JWT_SECRET from the environment or .env, the same secret the
// server verifies with.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/travel-booking/internal/utils"
)

func main() {
	sub := flag.String("sub", "traveler-1", "subject (owner id) to put in the token")
	role := flag.String("role", "TRAVELER", "role claim: TRAVELER or ADMIN")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	tok, err := utils.NewAccessToken(os.Getenv("JWT_SECRET"), *sub, *role, *ttl)
	if err != nil {
		log.Fatalf("devtoken: %v", err)
	}
	fmt.Println(tok.Token)
}
