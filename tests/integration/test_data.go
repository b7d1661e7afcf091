package integration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// TestUser generates unique test user credentials using timestamp
func TestUser(suffix string) (email, username string) {
	ts := time.Now().UnixNano()
	email = fmt.Sprintf("test-%d-%s@example.com", ts, suffix)
	username = fmt.Sprintf("user%d%s", ts%1_000_000_000, suffix)
	return
}

// TestIPHash returns the hashed form of a test IP address
func TestIPHash(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

// TestPasswordHash is a bcrypt hash of "TestPassword123!" at a low cost,
// precomputed so repository tests don't pay for hashing
const TestPasswordHash = "$2a$04$Tku0HJAL2cMLJmbCpTlMze6YbxhYdHYk6kgOzVHlm0lRr2a6SJ1Ry"
